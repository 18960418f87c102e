// Package index defines the vector index capability used on both the write
// path (the synchronizer mutates entries) and the read path (the orchestrator
// queries by similarity). The sqvect subpackage provides the production
// SQLite-backed implementation; mock provides an in-memory one for tests.
package index
