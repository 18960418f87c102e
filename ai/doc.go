// Package ai defines the embedding provider boundary for the retrieval
// engine. Production deployments use the openai subpackage against any
// OpenAI-compatible embedding API; tests use the mock subpackage.
package ai
