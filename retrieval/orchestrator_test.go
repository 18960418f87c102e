package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/petlog/healthrag/ai/mock"
	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/corpus"
	"github.com/petlog/healthrag/index"
	idxmock "github.com/petlog/healthrag/index/mock"
)

// stubFetcher is a controllable external source for tests.
type stubFetcher struct {
	name    string
	delay   time.Duration
	results []core.RankedResult
	err     error
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, query string) ([]core.RankedResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.results, s.err
}

func testCorpus() *corpus.Corpus {
	return corpus.New([]core.CorpusDocument{
		{
			ID:       "diarrhea-01",
			Title:    "설사",
			Body:     "강아지 설사의 흔한 원인과 대처법입니다.",
			Keywords: []string{"설사"},
		},
	})
}

func seedIndex(t *testing.T) *idxmock.MockIndex {
	t.Helper()

	idx := idxmock.NewMockIndex()
	embedder := aimock.NewMockEmbedder()
	vector, err := embedder.EmbedText(context.Background(), "어제도 설사를 했어요")
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(context.Background(), &core.VectorEntry{
		RecordID:  1,
		OwnerID:   7,
		SubjectID: 3,
		Embedding: vector,
		Snippet:   "어제도 설사를 했어요",
	}))
	return idx
}

func TestRetrieveMergesAllSources(t *testing.T) {
	fetcher := &stubFetcher{
		name: "백과사전",
		results: []core.RankedResult{
			{Source: "백과사전", Title: "장염", Snippet: "장염 개요", Score: 0.8},
		},
	}

	o, err := NewOrchestrator(testCorpus(), aimock.NewMockEmbedder(), seedIndex(t), WithFetchers(fetcher))
	require.NoError(t, err)

	ctx := context.Background()
	block := o.Retrieve(ctx, "우리 강아지 설사해요", index.Filter{})

	assert.Contains(t, block, "[건강정보] 설사")
	assert.Contains(t, block, "[반려일지]")
	assert.Contains(t, block, "[백과사전] 장염")
	assert.NotContains(t, block, FallbackContext)

	// Priority order, not completion order: lexical before vector before
	// external.
	lexIdx := strings.Index(block, "[건강정보]")
	vecIdx := strings.Index(block, "[반려일지]")
	extIdx := strings.Index(block, "[백과사전]")
	assert.Less(t, lexIdx, vecIdx)
	assert.Less(t, vecIdx, extIdx)
}

func TestRetrievePartialSourceResilience(t *testing.T) {
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}
	failing := &stubFetcher{name: "백과사전", err: errors.New("http 503")}

	o, err := NewOrchestrator(testCorpus(), embedder, idxmock.NewMockIndex(), WithFetchers(failing))
	require.NoError(t, err)

	block := o.Retrieve(context.Background(), "우리 강아지 설사해요", index.Filter{})

	assert.Contains(t, block, "설사")
	assert.NotEqual(t, FallbackContext, block)
}

func TestRetrieveDeadlineRespected(t *testing.T) {
	slow := &stubFetcher{name: "느린소스", delay: 2 * time.Second}
	o, err := NewOrchestrator(testCorpus(), nil, nil,
		WithFetchers(slow, slow, slow),
		WithDeadline(100*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	block := o.Retrieve(context.Background(), "설사", index.Filter{})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Contains(t, block, "설사")
}

func TestRetrieveKeepsInTimeResultBehindSlowSource(t *testing.T) {
	slow := &stubFetcher{name: "느린소스", delay: time.Second}
	fast := &stubFetcher{
		name:  "빠른소스",
		delay: time.Millisecond,
		results: []core.RankedResult{
			{Source: "빠른소스", Title: "장염", Snippet: "장염 개요", Score: 0.7},
		},
	}

	// The fast source finishes well inside the deadline but is collected
	// after the slow one times out; its buffered result must still be taken.
	o, err := NewOrchestrator(nil, nil, nil,
		WithFetchers(slow, fast),
		WithDeadline(50*time.Millisecond))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		block := o.Retrieve(context.Background(), "설사", index.Filter{})
		assert.Contains(t, block, "장염")
	}
}

func TestRetrieveFallbackWhenAllSourcesEmpty(t *testing.T) {
	failing := &stubFetcher{name: "백과사전", err: errors.New("http 503")}
	o, err := NewOrchestrator(nil, nil, nil, WithFetchers(failing))
	require.NoError(t, err)

	block := o.Retrieve(context.Background(), "설사", index.Filter{})
	assert.Equal(t, FallbackContext, block)
}

func TestRetrieveDeduplicatesByTitle(t *testing.T) {
	dup := &stubFetcher{
		name: "백과사전",
		results: []core.RankedResult{
			{Source: "백과사전", Title: "설사", Snippet: "중복되는 항목", Score: 0.9},
		},
	}

	o, err := NewOrchestrator(testCorpus(), nil, nil, WithFetchers(dup))
	require.NoError(t, err)

	block := o.Retrieve(context.Background(), "설사", index.Filter{})

	// The lexical hit wins on priority; the external duplicate is dropped.
	assert.Equal(t, 1, strings.Count(block, "설사 ("))
	assert.NotContains(t, block, "중복되는 항목")
}

func TestRetrieveCapsResultCount(t *testing.T) {
	var many []core.RankedResult
	for _, title := range []string{"하나", "둘", "셋", "넷", "다섯"} {
		many = append(many, core.RankedResult{Source: "백과사전", Title: title, Snippet: title, Score: 0.5})
	}
	fetcher := &stubFetcher{name: "백과사전", results: many}

	o, err := NewOrchestrator(nil, nil, nil, WithFetchers(fetcher), WithMaxItems(2))
	require.NoError(t, err)

	block := o.Retrieve(context.Background(), "질문", index.Filter{})
	assert.Equal(t, 2, strings.Count(block, "[백과사전]"))
}

func TestRetrieveFilterReachesIndex(t *testing.T) {
	idx := idxmock.NewMockIndex()
	var gotFilter index.Filter
	idx.QueryFunc = func(ctx context.Context, vector []float32, filter index.Filter, topK int) ([]index.Match, error) {
		gotFilter = filter
		return nil, nil
	}

	o, err := NewOrchestrator(nil, aimock.NewMockEmbedder(), idx)
	require.NoError(t, err)

	o.Retrieve(context.Background(), "설사", index.Filter{OwnerID: 7, SubjectID: 3})
	assert.Equal(t, index.Filter{OwnerID: 7, SubjectID: 3}, gotFilter)
}

func TestRetrieveMonitorHooks(t *testing.T) {
	recorder := &recordingMonitor{}
	failing := &stubFetcher{name: "백과사전", err: errors.New("http 503")}

	o, err := NewOrchestrator(testCorpus(), nil, nil, WithFetchers(failing))
	require.NoError(t, err)

	o.RetrieveWithMonitor(context.Background(), "설사", index.Filter{}, recorder)

	assert.Equal(t, "설사", recorder.query)
	assert.Len(t, recorder.lexical, 1)
	assert.Equal(t, []string{"백과사전"}, recorder.failed)
	assert.Len(t, recorder.final, 1)
}

type recordingMonitor struct {
	query    string
	lexical  []core.RankedResult
	failed   []string
	timedOut []string
	final    []core.RankedResult
}

func (r *recordingMonitor) Start(query string)                           { r.query = query }
func (r *recordingMonitor) AfterLexicalSearch(results []core.RankedResult) { r.lexical = results }
func (r *recordingMonitor) SourceCompleted(string, []core.RankedResult)  {}
func (r *recordingMonitor) SourceFailed(source string, _ error)          { r.failed = append(r.failed, source) }
func (r *recordingMonitor) SourceTimedOut(source string)                 { r.timedOut = append(r.timedOut, source) }
func (r *recordingMonitor) Finish(results []core.RankedResult)           { r.final = results }

func TestNewOrchestratorValidation(t *testing.T) {
	_, err := NewOrchestrator(nil, nil, nil, WithDeadline(0))
	assert.ErrorIs(t, err, ErrInvalidDeadline)

	_, err = NewOrchestrator(nil, nil, nil, WithSourceTimeout(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidDeadline)
}
