package retrieval

import "github.com/petlog/healthrag/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during
// hybrid retrieval.
type RetrievalMonitor interface {
	Start(query string)
	AfterLexicalSearch(results []core.RankedResult)
	SourceCompleted(source string, results []core.RankedResult)
	SourceFailed(source string, err error)
	SourceTimedOut(source string)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) AfterLexicalSearch(_ []core.RankedResult)       {}
func (n *noopMonitor) SourceCompleted(_ string, _ []core.RankedResult) {}
func (n *noopMonitor) SourceFailed(_ string, _ error)                 {}
func (n *noopMonitor) SourceTimedOut(_ string)                        {}
func (n *noopMonitor) Finish(_ []core.RankedResult)                   {}
