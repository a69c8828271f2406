// Package vectorstore defines the vector index abstraction used for
// nearest-neighbor retrieval. Implementations can keep vectors in process
// memory (flat) or delegate to a managed service (qdrant).
package vectorstore

import (
	"context"
	"errors"
)

// Common errors for vector index operations.
var (
	// ErrInvalidDimension indicates a missing or mismatched embedding
	// dimension. Fatal at construction time.
	ErrInvalidDimension = errors.New("invalid vector dimension")

	// ErrPositionOutOfOrder indicates the caller handed Insert a position
	// that is not the next free slot of the index.
	ErrPositionOutOfOrder = errors.New("insert position out of order")

	// ErrUnavailable indicates the backing service could not be reached.
	// Recoverable; callers degrade to "no results" rather than crashing.
	ErrUnavailable = errors.New("vector backend unavailable")
)

// Match is a single nearest-neighbor hit.
type Match struct {
	// Position is the 0-based insertion-order index of the stored vector.
	Position int

	// Distance is the squared Euclidean distance to the query vector.
	// Lower is closer.
	Distance float32
}

// Index is a growing set of vectors supporting k-nearest-neighbor queries.
// Positions are assigned by the caller strictly in insertion order starting
// at 0 and are never reused; an Index must never derive identity from its
// own current population.
type Index interface {
	// Insert stores vector at the given position. The position must be the
	// next free slot; ErrPositionOutOfOrder is returned otherwise.
	// Duplicate vectors are accepted.
	Insert(ctx context.Context, position int, vector []float32) error

	// Query returns up to k nearest neighbors sorted by ascending distance.
	// Fewer than k results are returned when fewer vectors exist; an empty
	// index yields an empty result. The flat backend breaks distance ties
	// by lower position; remote backends report the server's ordering.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Close releases any resources held by the index.
	Close() error
}

// Opener allocates a fresh index for one group. The group id scopes
// backend-side resources (e.g. the qdrant collection name); the flat
// backend ignores it.
type Opener func(ctx context.Context, groupID string) (Index, error)
