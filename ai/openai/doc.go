// Package openai implements the ai.Embedder interface against any
// OpenAI-compatible embeddings endpoint (Ollama, LocalAI, vLLM, OpenAI).
package openai
