// Package embedding defines the text-to-vector encoder consumed by the
// index manager. Encoders are deterministic for identical input within a
// process lifetime and produce vectors of a fixed, known dimension.
package embedding

import "context"

// Encoder turns text into fixed-dimension embedding vectors.
type Encoder interface {
	// Encode returns the embedding vector for one text.
	Encode(ctx context.Context, text string) ([]float32, error)

	// EncodeBatch returns one vector per input text, in input order. Used
	// during warm-start replay.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed vector dimension.
	Dimension() int
}
