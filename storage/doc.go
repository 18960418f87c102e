// Package storage defines the durable event log and offset store behind the
// index synchronizer, plus the serialization helpers shared by backends.
package storage
