package ai

import "errors"

var (
	// ErrEmptyEmbedding is returned when the provider responds without a
	// vector for the requested text.
	ErrEmptyEmbedding = errors.New("embedding provider returned no vector")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
