package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/retrieval"
)

const (
	// articleScore ranks crawled articles below API-backed sources.
	articleScore = 0.4
	// articleUserAgent is sent on crawl requests; some article sites
	// reject the default Go client string.
	articleUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	// maxArticleBody bounds how much of a page is read.
	maxArticleBody = 1 << 20
)

// ArticleFetcher crawls a site's search page and extracts the first article
// headline and summary. It yields at most one result per query; a page with
// no recognizable headline yields none.
type ArticleFetcher struct {
	name       string
	searchURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ retrieval.Fetcher = (*ArticleFetcher)(nil)

// ArticleOption configures an ArticleFetcher.
type ArticleOption func(*ArticleFetcher)

// WithArticleHTTPClient sets a custom HTTP client.
func WithArticleHTTPClient(client *http.Client) ArticleOption {
	return func(f *ArticleFetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithArticleLogger sets a custom logger.
func WithArticleLogger(logger *slog.Logger) ArticleOption {
	return func(f *ArticleFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewArticleFetcher creates a crawler for one site. searchURL is the search
// page with the query appended, e.g. "https://www.petmd.com/search?q=".
func NewArticleFetcher(name, searchURL string, opts ...ArticleOption) (*ArticleFetcher, error) {
	if name == "" || searchURL == "" {
		return nil, ErrSourceConfigRequired
	}

	f := &ArticleFetcher{
		name:       name,
		searchURL:  searchURL,
		httpClient: http.DefaultClient,
		logger:     slog.Default().With("component", "article-source", "site", name),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Name identifies the source in logs and result tags.
func (f *ArticleFetcher) Name() string { return f.name }

// Fetch crawls the search page and extracts the top article.
func (f *ArticleFetcher) Fetch(ctx context.Context, query string) ([]core.RankedResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.searchURL+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", articleUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBody))
	if err != nil {
		return nil, err
	}
	page := string(body)

	title := firstHeadingLink(page)
	if title == "" {
		f.logger.Debug("no headline found", "query", query)
		return nil, nil
	}
	summary := firstParagraph(page)
	if summary == "" {
		f.logger.Debug("headline without summary, skipping", "query", query, "title", title)
		return nil, nil
	}

	return []core.RankedResult{{
		Source:     f.name,
		Title:      title,
		Snippet:    core.Snippet(summary, 200),
		Score:      articleScore,
		Provenance: f.searchURL + url.QueryEscape(query),
	}}, nil
}
