// Copyright 2026 PetLog
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/retrieval"
)

const (
	// DefaultNaverEndpoint is the encyclopedia search API.
	DefaultNaverEndpoint = "https://openapi.naver.com/v1/search/encyc.json"
	// DefaultNaverDisplay is how many items one search requests.
	DefaultNaverDisplay = 3

	naverSourceTag = "네이버 지식백과"
)

// NaverClient fetches encyclopedia entries from the Naver open API.
// API items carry no similarity score, so results get a position-decayed
// score starting below lexical and vector hits.
type NaverClient struct {
	endpoint     string
	clientID     string
	clientSecret string
	display      int
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ retrieval.Fetcher = (*NaverClient)(nil)

// NaverOption configures a NaverClient.
type NaverOption func(*NaverClient)

// WithNaverEndpoint overrides the API endpoint, used by tests.
func WithNaverEndpoint(endpoint string) NaverOption {
	return func(c *NaverClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithNaverDisplay sets how many items one search requests.
func WithNaverDisplay(display int) NaverOption {
	return func(c *NaverClient) {
		if display > 0 {
			c.display = display
		}
	}
}

// WithNaverHTTPClient sets a custom HTTP client.
func WithNaverHTTPClient(client *http.Client) NaverOption {
	return func(c *NaverClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithNaverLogger sets a custom logger.
func WithNaverLogger(logger *slog.Logger) NaverOption {
	return func(c *NaverClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewNaverClient creates a Naver encyclopedia fetcher.
func NewNaverClient(clientID, clientSecret string, opts ...NaverOption) (*NaverClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrCredentialsRequired
	}

	c := &NaverClient{
		endpoint:     DefaultNaverEndpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		display:      DefaultNaverDisplay,
		httpClient:   http.DefaultClient,
		logger:       slog.Default().With("component", "naver-source"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name identifies the source in logs and result tags.
func (c *NaverClient) Name() string { return naverSourceTag }

type naverItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

type naverResponse struct {
	Items []naverItem `json:"items"`
}

// Fetch queries the encyclopedia API and returns stripped, scored results.
func (c *NaverClient) Fetch(ctx context.Context, query string) ([]core.RankedResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(c.display))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	results := make([]core.RankedResult, 0, len(payload.Items))
	for i, item := range payload.Items {
		title := stripTags(item.Title)
		description := stripTags(item.Description)
		if title == "" && description == "" {
			continue
		}
		results = append(results, core.RankedResult{
			Source:     naverSourceTag,
			Title:      title,
			Snippet:    core.Snippet(description, 200),
			Score:      positionScore(i),
			Provenance: item.Link,
		})
	}

	c.logger.Debug("encyclopedia search complete", "query", query, "results", len(results))
	return results, nil
}

// positionScore decays from 0.6 by rank; external hits never outrank a
// strong lexical or vector match.
func positionScore(rank int) float64 {
	score := 0.6 - 0.1*float64(rank)
	if score < 0.1 {
		return 0.1
	}
	return score
}
