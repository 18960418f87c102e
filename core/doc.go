// Package core defines the domain model shared across the retrieval engine:
// change events emitted by the journal system of record, vector index
// entries, corpus documents, and ranked retrieval results.
package core
