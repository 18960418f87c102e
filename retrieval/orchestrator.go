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


package retrieval

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/petlog/healthrag/ai"
	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/corpus"
	"github.com/petlog/healthrag/index"
)

const (
	// DefaultDeadline bounds one whole retrieval fan-out.
	DefaultDeadline = 5 * time.Second
	// DefaultSourceTimeout bounds each individual async source.
	DefaultSourceTimeout = 3 * time.Second
	// DefaultMaxItems caps how many results reach the context block.
	DefaultMaxItems = 8
	// DefaultVectorTopK is how many entries the vector branch requests.
	DefaultVectorTopK = 5

	// SourceCorpus tags results from the local lexical corpus.
	SourceCorpus = "건강정보"
	// SourceJournal tags results from the vector-indexed journal history.
	SourceJournal = "반려일지"
)

// Orchestrator fans a query out to the local lexical corpus, the vector
// index, and any registered external fetchers, then merges whatever came
// back in time into one ranked context block.
//
// Degradation is the design center: a nil corpus searches as empty, a
// missing embedder or index disables the vector branch, and failed or slow
// sources are dropped from the merge. Retrieve never returns an error.
type Orchestrator struct {
	corpus        *corpus.Corpus
	embedder      ai.Embedder
	index         index.Index
	fetchers      []Fetcher
	deadline      time.Duration
	sourceTimeout time.Duration
	maxItems      int
	vectorTopK    int
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithFetchers registers external sources, queried in registration order.
func WithFetchers(fetchers ...Fetcher) Option {
	return func(o *Orchestrator) error {
		for _, f := range fetchers {
			if f != nil {
				o.fetchers = append(o.fetchers, f)
			}
		}
		return nil
	}
}

// WithDeadline overrides the overall retrieval deadline.
func WithDeadline(deadline time.Duration) Option {
	return func(o *Orchestrator) error {
		if deadline <= 0 {
			return ErrInvalidDeadline
		}
		o.deadline = deadline
		return nil
	}
}

// WithSourceTimeout overrides the per-source timeout.
func WithSourceTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout <= 0 {
			return ErrInvalidDeadline
		}
		o.sourceTimeout = timeout
		return nil
	}
}

// WithMaxItems caps the number of merged results.
func WithMaxItems(max int) Option {
	return func(o *Orchestrator) error {
		if max > 0 {
			o.maxItems = max
		}
		return nil
	}
}

// WithVectorTopK sets how many entries the vector branch requests.
func WithVectorTopK(topK int) Option {
	return func(o *Orchestrator) error {
		if topK > 0 {
			o.vectorTopK = topK
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// NewOrchestrator creates a retrieval orchestrator. All collaborators are
// optional: a nil corpus behaves as empty and a nil embedder or index
// disables the vector branch, so the engine can start degraded.
func NewOrchestrator(lexical *corpus.Corpus, embedder ai.Embedder, idx index.Index, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		corpus:        lexical,
		embedder:      embedder,
		index:         idx,
		deadline:      DefaultDeadline,
		sourceTimeout: DefaultSourceTimeout,
		maxItems:      DefaultMaxItems,
		vectorTopK:    DefaultVectorTopK,
		logger:        slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if !o.vectorEnabled() {
		o.logger.Warn("vector branch disabled, retrieval will use lexical and external sources only")
	}
	return o, nil
}

func (o *Orchestrator) vectorEnabled() bool {
	return o.embedder != nil && o.index != nil
}

// Retrieve assembles a ranked context block for the query. It blocks at most
// for the configured deadline and always returns a usable string; when every
// source is empty or failing the fallback message comes back instead.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, filter index.Filter) string {
	return o.RetrieveWithMonitor(ctx, query, filter, nil)
}

// RetrieveWithMonitor is Retrieve with observation hooks for each stage.
func (o *Orchestrator) RetrieveWithMonitor(ctx context.Context, query string, filter index.Filter, monitor RetrievalMonitor) string {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	// 1. Lexical search runs synchronously: in-memory, no network.
	merged := o.lexicalResults(query)
	monitor.AfterLexicalSearch(merged)

	deadlineCtx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	// 2. Launch every async branch. Channels are buffered so an abandoned
	// branch can still deliver its late result and exit without blocking.
	type branch struct {
		name string
		ch   chan []core.RankedResult
	}
	var branches []branch

	if o.vectorEnabled() {
		b := branch{name: SourceJournal, ch: make(chan []core.RankedResult, 1)}
		branches = append(branches, b)
		go func() {
			b.ch <- o.vectorResults(deadlineCtx, query, filter, monitor)
		}()
	}
	for _, fetcher := range o.fetchers {
		b := branch{name: fetcher.Name(), ch: make(chan []core.RankedResult, 1)}
		branches = append(branches, b)
		go func(f Fetcher) {
			b.ch <- o.fetchResults(deadlineCtx, f, query, monitor)
		}(fetcher)
	}

	// 3. Collect in launch order so merge order is priority-by-registration
	// and deterministic, never completion order.
	for _, b := range branches {
		select {
		case results := <-b.ch:
			merged = append(merged, results...)
		case <-deadlineCtx.Done():
			// A branch that finished in time may have its result sitting in
			// the buffer while Done was already closed; take it over the
			// timeout.
			select {
			case results := <-b.ch:
				merged = append(merged, results...)
			default:
				monitor.SourceTimedOut(b.name)
				o.logger.Warn("abandoning source past deadline", "source", b.name)
			}
		}
	}

	merged = dedupe(merged)
	if len(merged) > o.maxItems {
		merged = merged[:o.maxItems]
	}
	monitor.Finish(merged)

	o.logger.Debug("retrieval complete", "query", query, "results", len(merged))
	return FormatContext(merged)
}

func (o *Orchestrator) lexicalResults(query string) []core.RankedResult {
	if o.corpus == nil {
		return nil
	}

	matches := o.corpus.Search(query)
	results := make([]core.RankedResult, 0, len(matches))
	for _, match := range matches {
		provenance := match.Doc.URL
		if provenance == "" {
			provenance = match.Doc.ID
		}
		results = append(results, core.RankedResult{
			Source:     SourceCorpus,
			Title:      match.Doc.Title,
			Snippet:    core.Snippet(match.Doc.Body, snippetRunes),
			Score:      match.Score,
			Provenance: provenance,
		})
	}
	return results
}

func (o *Orchestrator) vectorResults(ctx context.Context, query string, filter index.Filter, monitor RetrievalMonitor) []core.RankedResult {
	srcCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	vector, err := o.embedder.EmbedText(srcCtx, query)
	if err != nil {
		monitor.SourceFailed(SourceJournal, err)
		o.logger.Warn("query embedding failed, vector branch empty", "err", err)
		return nil
	}

	matches, err := o.index.Query(srcCtx, vector, filter, o.vectorTopK)
	if err != nil {
		monitor.SourceFailed(SourceJournal, err)
		o.logger.Warn("vector query failed, vector branch empty", "err", err)
		return nil
	}

	results := make([]core.RankedResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, core.RankedResult{
			Source:     SourceJournal,
			Title:      core.Snippet(firstLine(match.Snippet), titleRunes),
			Snippet:    match.Snippet,
			Score:      match.Score,
			Provenance: "journal:" + strconv.FormatInt(match.RecordID, 10),
		})
	}
	monitor.SourceCompleted(SourceJournal, results)
	return results
}

func (o *Orchestrator) fetchResults(ctx context.Context, fetcher Fetcher, query string, monitor RetrievalMonitor) []core.RankedResult {
	srcCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	results, err := fetcher.Fetch(srcCtx, query)
	if err != nil {
		monitor.SourceFailed(fetcher.Name(), err)
		o.logger.Warn("source fetch failed", "source", fetcher.Name(), "err", err)
		return nil
	}
	monitor.SourceCompleted(fetcher.Name(), results)
	return results
}

// dedupe drops results whose normalized title prefix was already seen,
// keeping the first occurrence so source priority decides survivors.
func dedupe(results []core.RankedResult) []core.RankedResult {
	seen := make(map[core.ID]struct{}, len(results))
	out := results[:0]
	for _, result := range results {
		key := normalizeKey(result)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, result)
	}
	return out
}

func normalizeKey(result core.RankedResult) core.ID {
	text := result.Title
	if text == "" {
		text = result.Snippet
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	runes := []rune(normalized)
	if len(runes) > dedupePrefixRunes {
		normalized = string(runes[:dedupePrefixRunes])
	}
	return core.IDFromContent(normalized)
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
