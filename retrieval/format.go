package retrieval

import (
	"fmt"
	"math"
	"strings"

	"github.com/petlog/healthrag/core"
)

const (
	// snippetRunes bounds each result snippet inside the context block.
	snippetRunes = 400
	// titleRunes bounds titles synthesized from journal snippets.
	titleRunes = 48
	// dedupePrefixRunes is how much normalized title feeds the dedupe key.
	dedupePrefixRunes = 64

	// resultSeparator sits between items in the context block.
	resultSeparator = "\n---\n"

	// FallbackContext is returned when every source came back empty or
	// failing. Downstream generation still needs a string to reason over.
	FallbackContext = "[검색된 참고 자료 없음] 관련 건강 정보를 찾지 못했습니다. 일반적인 수의학 지식을 바탕으로 신중하게 답변하세요."
)

// FormatContext renders merged results into the context block handed to the
// downstream model. Each item carries its source tag and a percentage
// relevance indicator. Empty input yields the fallback message.
func FormatContext(results []core.RankedResult) string {
	if len(results) == 0 {
		return FallbackContext
	}

	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString(resultSeparator)
		}
		fmt.Fprintf(&b, "[%s] %s (관련도 %d%%)\n%s",
			result.Source, result.Title, relevancePercent(result.Score),
			core.Snippet(result.Snippet, snippetRunes))
		if result.Provenance != "" {
			fmt.Fprintf(&b, "\n출처: %s", result.Provenance)
		}
	}
	return b.String()
}

func relevancePercent(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 100
	}
	return int(math.Round(score * 100))
}
