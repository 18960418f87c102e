// Package sqvect provides a SQLite-backed implementation of index.Index
// using the sqvect embedded vector store.
package sqvect
