// Package reindex regenerates vector index embeddings in batches, with
// bounded retries and progress reporting. It is driven from the command line
// after an embedding model change.
package reindex
