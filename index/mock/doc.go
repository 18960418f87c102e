// Package mock provides an in-memory index.Index for testing.
package mock
