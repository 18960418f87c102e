package retrieval

import (
	"context"

	"github.com/petlog/healthrag/core"
)

// Fetcher is a single external retrieval source. Implementations must honor
// ctx cancellation: the orchestrator wraps every Fetch call in its own
// timeout and abandons fetchers that overrun it.
//
// Fetch errors are isolation-scoped: the orchestrator logs them and treats
// the source as empty, they never fail the query.
type Fetcher interface {
	// Name identifies the source in logs and result tags.
	Name() string

	// Fetch returns ranked results for the query, best first.
	Fetch(ctx context.Context, query string) ([]core.RankedResult, error)
}
