// Package retrieval assembles grounding context for the downstream model by
// fanning a query out across the lexical corpus, the vector index, and
// external sources under a single deadline, then merging whatever responded
// in time into one ranked, formatted block.
package retrieval
