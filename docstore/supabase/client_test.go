package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	require.ErrorContains(t, err, "URL is required")

	_, err = New(Config{URL: "https://example.supabase.co"})
	require.ErrorContains(t, err, "API key is required")
}

func TestRouteCacheExpires(t *testing.T) {
	c, err := New(Config{
		URL:      "https://example.supabase.co",
		APIKey:   "test-anon-key",
		CacheTTL: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	c.cacheRoute(42, "g1")
	assert.Equal(t, "g1", c.getCachedRoute(42))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "", c.getCachedRoute(42))
}

func TestLoadAllOrdersByCreationTimeThenRowID(t *testing.T) {
	var orderParam string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/documents") {
			http.NotFound(w, r)
			return
		}
		orderParam = r.URL.Query().Get("order")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"text":"first"},{"text":"second"},{"text":"third"}]`))
	}))
	defer server.Close()

	c, err := New(Config{URL: server.URL, APIKey: "test-anon-key"})
	require.NoError(t, err)

	texts, err := c.LoadAll(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, texts)

	created := strings.Index(orderParam, "created_at.asc")
	rowID := strings.Index(orderParam, "id.asc")
	require.NotEqual(t, -1, created, "order param %q must sort by created_at", orderParam)
	require.NotEqual(t, -1, rowID, "order param %q must tie-break by id", orderParam)
	assert.Less(t, created, rowID, "created_at must be the primary sort key in %q", orderParam)
}

func TestRouteCacheMissesUnknownChat(t *testing.T) {
	c, err := New(Config{URL: "https://example.supabase.co", APIKey: "test-anon-key"})
	require.NoError(t, err)
	assert.Equal(t, "", c.getCachedRoute(7))
}
