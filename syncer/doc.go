// Package syncer keeps the vector index consistent with journal record
// mutations. It consumes change events from a durable log with at-least-once
// delivery, applies them through a bounded-retry handler, and commits
// consumer offsets only after every event in a batch reaches a terminal
// state.
package syncer
