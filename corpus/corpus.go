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


package corpus

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/petlog/healthrag/core"
)

// Field weights. An expanded term can contribute at most
// weightTitle+weightKeyword+weightBody per query, which is the per-term
// normalizer.
const (
	weightTitle   = 3.0
	weightKeyword = 2.0
	weightBody    = 1.0
	tokenCeiling  = weightTitle + weightKeyword + weightBody

	// DefaultThreshold drops documents whose normalized score carries no
	// real signal.
	DefaultThreshold = 0.1

	// DefaultTopN bounds how many documents a single search returns.
	DefaultTopN = 5
)

// Match pairs a corpus document with its normalized relevance score in [0,1].
type Match struct {
	Doc   core.CorpusDocument
	Score float64
}

// Corpus is an in-memory lexical document store searched by weighted token
// overlap. It is immutable after construction and safe for concurrent use.
type Corpus struct {
	docs      []core.CorpusDocument
	threshold float64
	topN      int
	logger    *slog.Logger
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithThreshold overrides the minimum normalized score a document must reach
// to be returned.
func WithThreshold(threshold float64) Option {
	return func(c *Corpus) {
		if threshold >= 0 {
			c.threshold = threshold
		}
	}
}

// WithTopN overrides how many documents a search returns at most.
func WithTopN(topN int) Option {
	return func(c *Corpus) {
		if topN > 0 {
			c.topN = topN
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Corpus) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Corpus over the given documents.
func New(docs []core.CorpusDocument, opts ...Option) *Corpus {
	c := &Corpus{
		docs:      docs,
		threshold: DefaultThreshold,
		topN:      DefaultTopN,
		logger:    slog.Default().With("component", "corpus"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of documents held.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Search scores every document against the query and returns up to topN
// matches above the threshold, best first. An empty query or an empty corpus
// yields no matches, never an error.
func (c *Corpus) Search(query string) []Match {
	terms := expandTokens(Tokenize(query))
	if len(terms) == 0 || len(c.docs) == 0 {
		return nil
	}

	// Every expanded term scores independently, so the normalizer is the
	// size of the expanded set, not the raw token count.
	normalizer := float64(len(terms)) * tokenCeiling

	matches := make([]Match, 0, c.topN)
	for _, doc := range c.docs {
		score := scoreDocument(doc, terms) / normalizer
		if score > 1 {
			score = 1
		}
		if score <= c.threshold {
			continue
		}
		matches = append(matches, Match{Doc: doc, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > c.topN {
		matches = matches[:c.topN]
	}

	c.logger.Debug("lexical search complete", "terms", len(terms), "matches", len(matches))
	return matches
}

// scoreDocument sums the weighted field hits for every expanded term. Each
// term counts at most once per field; synonyms of the same token each add
// their own body and keyword hits.
func scoreDocument(doc core.CorpusDocument, terms []string) float64 {
	title := strings.ToLower(doc.Title)
	body := strings.ToLower(doc.Body)
	keywords := make([]string, len(doc.Keywords))
	for i, kw := range doc.Keywords {
		keywords[i] = strings.ToLower(kw)
	}

	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += weightTitle
		}
		for _, kw := range keywords {
			if overlaps(kw, term) {
				score += weightKeyword
				break
			}
		}
		if strings.Contains(body, term) {
			score += weightBody
		}
	}
	return score
}
