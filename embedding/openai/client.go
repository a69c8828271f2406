// Package openai implements embedding.Encoder using the OpenAI embeddings
// API.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/creastat/knowledgebot/embedding"
)

// Config holds OpenAI embedding configuration.
type Config struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// Model is the embedding model name. Default: text-embedding-3-small.
	Model string

	// Dimension is the expected vector dimension. Default: 1536.
	Dimension int
}

// Encoder implements embedding.Encoder using OpenAI embeddings.
type Encoder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// New creates a new OpenAI encoder.
func New(cfg Config) (*Encoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 1536
	}
	if cfg.Dimension < 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", cfg.Dimension)
	}

	return &Encoder{
		client:    openai.NewClient(cfg.APIKey),
		model:     openai.EmbeddingModel(cfg.Model),
		dimension: cfg.Dimension,
	}, nil
}

// Encode implements embedding.Encoder.
func (e *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch implements embedding.Encoder.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	return collectEmbeddings(resp.Data, len(texts), e.dimension)
}

// collectEmbeddings places each returned embedding at the slot named by its
// Index field and validates the response before the vectors reach an index:
// a vector in the wrong slot would silently break the document/vector pairing.
func collectEmbeddings(data []openai.Embedding, count, dimension int) ([][]float32, error) {
	if len(data) != count {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(data), count)
	}

	vectors := make([][]float32, count)
	for _, item := range data {
		if item.Index < 0 || item.Index >= count {
			return nil, fmt.Errorf("embedding index out of range: %d with %d inputs", item.Index, count)
		}
		if vectors[item.Index] != nil {
			return nil, fmt.Errorf("duplicate embedding index: %d", item.Index)
		}
		if len(item.Embedding) != dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(item.Embedding), dimension)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// Dimension implements embedding.Encoder.
func (e *Encoder) Dimension() int {
	return e.dimension
}

// Compile-time check that Encoder implements embedding.Encoder.
var _ embedding.Encoder = (*Encoder)(nil)
