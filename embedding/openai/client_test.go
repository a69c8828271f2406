package openai

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewRejectsNegativeDimension(t *testing.T) {
	_, err := New(Config{APIKey: "test-key", Dimension: -1})
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	e, err := New(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimension())
}

func TestCollectEmbeddingsOrdersByIndex(t *testing.T) {
	data := []openai.Embedding{
		{Index: 1, Embedding: []float32{3, 4}},
		{Index: 0, Embedding: []float32{1, 2}},
	}

	vectors, err := collectEmbeddings(data, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vectors)
}

func TestCollectEmbeddingsRejectsOutOfRangeIndex(t *testing.T) {
	data := []openai.Embedding{
		{Index: 0, Embedding: []float32{1, 2}},
		{Index: 5, Embedding: []float32{3, 4}},
	}

	_, err := collectEmbeddings(data, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestCollectEmbeddingsRejectsNegativeIndex(t *testing.T) {
	data := []openai.Embedding{
		{Index: -1, Embedding: []float32{1, 2}},
		{Index: 0, Embedding: []float32{3, 4}},
	}

	_, err := collectEmbeddings(data, 2, 2)
	require.Error(t, err)
}

func TestCollectEmbeddingsRejectsDuplicateIndex(t *testing.T) {
	data := []openai.Embedding{
		{Index: 0, Embedding: []float32{1, 2}},
		{Index: 0, Embedding: []float32{3, 4}},
	}

	_, err := collectEmbeddings(data, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestCollectEmbeddingsRejectsCountMismatch(t *testing.T) {
	data := []openai.Embedding{{Index: 0, Embedding: []float32{1, 2}}}

	_, err := collectEmbeddings(data, 2, 2)
	require.Error(t, err)
}

func TestCollectEmbeddingsRejectsDimensionMismatch(t *testing.T) {
	data := []openai.Embedding{{Index: 0, Embedding: []float32{1, 2, 3}}}

	_, err := collectEmbeddings(data, 1, 2)
	require.Error(t, err)
}
