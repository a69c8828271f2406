// Package knowledge owns the per-group vector indexes and keeps each
// group's document sequence positionally aligned with its vectors: for
// every group and every i, vectors[i] is the embedding of documents[i].
// Neighbor positions returned by a query resolve back to text through that
// alignment, so it must hold at all times.
package knowledge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/creastat/knowledgebot/docstore"
	"github.com/creastat/knowledgebot/embedding"
	"github.com/creastat/knowledgebot/vectorstore"
)

// DefaultSearchLimit is the number of neighbors retrieved per query when
// the caller does not say otherwise.
const DefaultSearchLimit = 5

// Manager routes add/search operations to the right group's vector index.
// Group state is created lazily on first reference and lives until process
// shutdown; there is no removal.
type Manager struct {
	open    vectorstore.Opener
	store   docstore.Store
	encoder embedding.Encoder
	logger  *zap.Logger

	mu     sync.RWMutex
	groups map[string]*groupState
}

// groupState pairs one group's index with its document sequence. The two
// grow together under mu or not at all.
type groupState struct {
	mu        sync.RWMutex
	index     vectorstore.Index
	documents []string
}

// NewManager creates a manager that opens per-group indexes through open
// and writes documents through store.
func NewManager(open vectorstore.Opener, store docstore.Store, encoder embedding.Encoder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		open:    open,
		store:   store,
		encoder: encoder,
		logger:  logger,
		groups:  make(map[string]*groupState),
	}
}

// group returns the state for groupID, creating it on first reference.
func (m *Manager) group(ctx context.Context, groupID string) (*groupState, error) {
	m.mu.RLock()
	state, ok := m.groups[groupID]
	m.mu.RUnlock()
	if ok {
		return state, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.groups[groupID]; ok {
		return state, nil
	}

	index, err := m.open(ctx, groupID)
	if err != nil {
		return nil, err
	}
	state = &groupState{index: index}
	m.groups[groupID] = state
	m.logger.Info("opened group index", zap.String("group_id", groupID))
	return state, nil
}

// lookup returns the state for groupID without creating it.
func (m *Manager) lookup(groupID string) *groupState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.groups[groupID]
}

// AddDocument persists doc, inserts its vector, and appends its text to the
// group's document sequence as one atomic step: the store write happens
// first, then the vector insert at position len(documents), then the
// append. Any failure leaves both in-memory sequences unchanged. A row
// persisted before a failed insert is picked up by the next warm-start.
// Returns the position assigned to the document.
func (m *Manager) AddDocument(ctx context.Context, groupID string, vector []float32, doc docstore.Document) (int, error) {
	state, err := m.group(ctx, groupID)
	if err != nil {
		return 0, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	doc.GroupID = groupID
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if err := m.store.Save(ctx, doc); err != nil {
		return 0, err
	}

	position := len(state.documents)
	if err := state.index.Insert(ctx, position, vector); err != nil {
		return 0, err
	}
	state.documents = append(state.documents, doc.Text)

	m.logger.Info("document added",
		zap.String("group_id", groupID),
		zap.Int("position", position),
	)
	return position, nil
}

// Search returns the texts of the up-to-k nearest documents, closest first.
// An unknown group has no knowledge yet and yields an empty result, not an
// error. A neighbor position without a corresponding document indicates a
// prior partial write; it is logged and skipped, never raised.
func (m *Manager) Search(ctx context.Context, groupID string, vector []float32, k int) ([]string, error) {
	state := m.lookup(groupID)
	if state == nil {
		return []string{}, nil
	}

	state.mu.RLock()
	defer state.mu.RUnlock()

	matches, err := state.index.Query(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.Position < 0 || match.Position >= len(state.documents) {
			m.logger.Warn("neighbor position has no document",
				zap.String("group_id", groupID),
				zap.Int("position", match.Position),
				zap.Int("documents", len(state.documents)),
			)
			continue
		}
		texts = append(texts, state.documents[match.Position])
	}
	return texts, nil
}

// Warm replays persisted document texts into a fresh group index, in the
// given order, so positions match persisted order exactly. Texts are
// already durable; nothing is re-saved.
func (m *Manager) Warm(ctx context.Context, groupID string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := m.encoder.EncodeBatch(ctx, texts)
	if err != nil {
		return err
	}

	state, err := m.group(ctx, groupID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	for i, text := range texts {
		position := len(state.documents)
		if err := state.index.Insert(ctx, position, vectors[i]); err != nil {
			return err
		}
		state.documents = append(state.documents, text)
	}

	m.logger.Info("group warmed",
		zap.String("group_id", groupID),
		zap.Int("documents", len(texts)),
	)
	return nil
}

// WarmAll loads every group from the document store and warms them.
// Distinct groups replay in parallel; order within a group is preserved.
func (m *Manager) WarmAll(ctx context.Context) error {
	groups, err := m.store.ListGroups(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, grp := range groups {
		groupID := grp.ID // registry keys are bare ids, never the row
		g.Go(func() error {
			texts, err := m.store.LoadAll(ctx, groupID)
			if err != nil {
				return err
			}
			return m.Warm(ctx, groupID, texts)
		})
	}
	return g.Wait()
}

// Documents returns the number of documents held for a group. Zero for an
// unknown group.
func (m *Manager) Documents(groupID string) int {
	state := m.lookup(groupID)
	if state == nil {
		return 0
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return len(state.documents)
}

// Close closes every group index.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for groupID, state := range m.groups {
		if err := state.index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.groups, groupID)
	}
	return firstErr
}
