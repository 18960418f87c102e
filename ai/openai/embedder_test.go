package openai

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlog/healthrag/ai"
)

// stubBackend stands in for the langchaingo embedder.
type stubBackend struct {
	vectors [][]float32
	err     error
}

func (s *stubBackend) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *stubBackend) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if len(s.vectors) == 0 {
		return nil, s.err
	}
	return s.vectors[0], s.err
}

func stubEmbedder(vectors [][]float32, err error) *Embedder {
	return &Embedder{
		embedder: &stubBackend{vectors: vectors, err: err},
		logger:   slog.Default(),
	}
}

func TestEmbedTextEmptyResult(t *testing.T) {
	e := stubEmbedder(nil, nil)

	_, err := e.EmbedText(context.Background(), "설사")
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}

func TestEmbedTextsShortBatch(t *testing.T) {
	e := stubEmbedder([][]float32{{0.1, 0.2}}, nil)

	_, err := e.EmbedTexts(context.Background(), []string{"설사", "구토"})
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}

func TestEmbedTextsHollowVector(t *testing.T) {
	e := stubEmbedder([][]float32{{0.1, 0.2}, {}}, nil)

	_, err := e.EmbedTexts(context.Background(), []string{"설사", "구토"})
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}

func TestEmbedTextsPassthrough(t *testing.T) {
	want := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	e := stubEmbedder(want, nil)

	got, err := e.EmbedTexts(context.Background(), []string{"설사", "구토"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
