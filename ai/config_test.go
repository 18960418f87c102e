package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, DefaultDimension, cfg.Dimension)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://embed.internal:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithDimension(1536),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://embed.internal:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.Dimension)
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("trims trailing slash before adding suffix", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434/"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("leaves existing suffix alone", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434/v1"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("fills default dimension", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434"}
		cfg.Normalize()
		assert.Equal(t, DefaultDimension, cfg.Dimension)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		cfg := &Config{EmbeddingModel: "m", Dimension: 8}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://h", Dimension: 8}
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative dimension", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://h", EmbeddingModel: "m", Dimension: -1}
		assert.Error(t, cfg.Validate())
	})
}
