// Package flat implements vectorstore.Index with an exact brute-force scan
// held entirely in process memory. O(n) per query; no persistence across
// restarts.
package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/creastat/knowledgebot/vectorstore"
)

// Index is an exact in-memory nearest-neighbor index over squared Euclidean
// distance. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

// New creates an empty flat index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", vectorstore.ErrInvalidDimension, dimension)
	}
	return &Index{dimension: dimension}, nil
}

// Opener returns a vectorstore.Opener that allocates a fresh flat index per
// group. The group id is not needed locally.
func Opener(dimension int) vectorstore.Opener {
	return func(ctx context.Context, groupID string) (vectorstore.Index, error) {
		return New(dimension)
	}
}

// Insert implements vectorstore.Index.
func (x *Index) Insert(ctx context.Context, position int, vector []float32) error {
	if len(vector) != x.dimension {
		return fmt.Errorf("%w: got %d, expected %d", vectorstore.ErrInvalidDimension, len(vector), x.dimension)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if position != len(x.vectors) {
		return fmt.Errorf("%w: got %d, next is %d", vectorstore.ErrPositionOutOfOrder, position, len(x.vectors))
	}

	v := make([]float32, x.dimension)
	copy(v, vector)
	x.vectors = append(x.vectors, v)
	return nil
}

// Query implements vectorstore.Index. Results are sorted by ascending
// squared Euclidean distance; ties are broken by lower position so that
// identical queries always return the same ordering.
func (x *Index) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", vectorstore.ErrInvalidDimension, len(vector), x.dimension)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.vectors) == 0 {
		return []vectorstore.Match{}, nil
	}

	matches := make([]vectorstore.Match, len(x.vectors))
	for i, stored := range x.vectors {
		var dist float32
		for j := 0; j < x.dimension; j++ {
			d := vector[j] - stored[j]
			dist += d * d
		}
		matches[i] = vectorstore.Match{Position: i, Distance: dist}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Position < matches[j].Position
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Size returns the number of stored vectors.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Close implements vectorstore.Index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = nil
	return nil
}

// Compile-time check that Index implements vectorstore.Index.
var _ vectorstore.Index = (*Index)(nil)
