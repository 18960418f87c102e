// Package sources provides external retrieval.Fetcher implementations: the
// Naver encyclopedia API client and a generic article-page crawler. All
// fetches are best-effort and bounded by the orchestrator's timeouts.
package sources
