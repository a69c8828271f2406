package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreRejectsUnknownType(t *testing.T) {
	_, err := NewStore(StoreType("bogus"))
	require.ErrorIs(t, err, ErrInvalidStoreType)
}

func TestNewStoreRedisRequiresClient(t *testing.T) {
	_, err := NewStore(StoreTypeRedis)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	ctx := context.Background()

	missing, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	chat := &ChatSession{ChatID: 42, GroupID: "g1"}
	require.NoError(t, store.Create(ctx, chat))
	assert.Equal(t, int64(1), chat.Version)

	loaded, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "g1", loaded.GroupID)

	loaded.Append("user", "hello")
	require.NoError(t, store.Update(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)

	require.NoError(t, store.Delete(ctx, 42))
	gone, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryStoreDetectsVersionConflict(t *testing.T) {
	store, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	ctx := context.Background()

	chat := &ChatSession{ChatID: 7}
	require.NoError(t, store.Create(ctx, chat))

	stale := &ChatSession{ChatID: 7, Version: 99}
	require.ErrorIs(t, store.Update(ctx, stale), ErrVersionConflict)

	require.ErrorIs(t, store.Update(ctx, &ChatSession{ChatID: 8, Version: 1}), ErrNotFound)
}

func TestMemoryStoreGetReturnsIndependentCopies(t *testing.T) {
	store, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	ctx := context.Background()

	chat := &ChatSession{ChatID: 1}
	chat.Append("user", "original")
	require.NoError(t, store.Create(ctx, chat))

	// Mutating one caller's copy must not leak into the store or into
	// another caller's copy.
	first, err := store.Get(ctx, 1)
	require.NoError(t, err)
	first.Append("user", "only mine")
	first.History[0].Content = "scribbled"

	second, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, second.History, 1)
	assert.Equal(t, "original", second.History[0].Content)

	// Mutating the input after Create/Update must not leak either.
	chat.History[0].Content = "scribbled"
	third, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "original", third.History[0].Content)
}

func TestMemoryStoreConcurrentReaders(t *testing.T) {
	store, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	ctx := context.Background()

	chat := &ChatSession{ChatID: 1}
	require.NoError(t, store.Create(ctx, chat))

	// Two handlers working the same chat at once; each must be free to
	// grow and trim its own copy of the history.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Get(ctx, 1)
			assert.NoError(t, err)
			got.Append("user", "question")
			got.Append("assistant", "answer")
			got.Truncate(1000, 20)
		}()
	}
	wg.Wait()

	stored, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored.History)
}

func TestAppendEstimatesTokens(t *testing.T) {
	chat := &ChatSession{ChatID: 1}
	chat.Append("user", "how does warm start work")
	require.Len(t, chat.History, 1)
	assert.Equal(t, "user", chat.History[0].Role)
	assert.Equal(t, EstimateTokens("how does warm start work"), chat.History[0].TokenCount)
}

func TestTruncateAppliesMessageLimitFirst(t *testing.T) {
	chat := &ChatSession{ChatID: 1}
	for _, content := range []string{"one", "two", "three", "four"} {
		chat.Append("user", content)
	}

	chat.Truncate(1000, 2)
	require.Len(t, chat.History, 2)
	assert.Equal(t, "three", chat.History[0].Content)
	assert.Equal(t, "four", chat.History[1].Content)
}

func TestTruncateDropsOldestUntilTokenBudgetFits(t *testing.T) {
	chat := &ChatSession{ChatID: 1}
	chat.Append("user", strings.Repeat("x", 400)) // ~100 tokens
	chat.Append("user", "recent")

	chat.Truncate(50, 10)
	require.Len(t, chat.History, 1)
	assert.Equal(t, "recent", chat.History[0].Content)
}

func TestEstimateTokensWeighsNonASCIIHeavier(t *testing.T) {
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 5, EstimateTokens("слово"))
	assert.Equal(t, 0, EstimateTokens(""))
}
