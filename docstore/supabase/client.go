// Package supabase implements docstore.Store using Supabase (PostgREST)
// over the documents, groups and chats tables.
package supabase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/creastat/knowledgebot/docstore"
)

// Config holds Supabase connection configuration.
type Config struct {
	URL      string
	APIKey   string
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the docstore.Store interface using Supabase.
type Client struct {
	client   *supabase.Client
	cache    *routeCache
	cacheTTL time.Duration
}

// routeCache provides thread-safe caching for chat-to-group routing, which
// is looked up on every incoming message.
type routeCache struct {
	mu     sync.RWMutex
	byChat map[int64]*cacheEntry
}

type cacheEntry struct {
	groupID   string
	expiresAt time.Time
}

// New creates a new Supabase-backed document store.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		cacheTTL: cfg.CacheTTL,
		cache: &routeCache{
			byChat: make(map[int64]*cacheEntry),
		},
	}, nil
}

// LoadAll implements docstore.Store. Rows are ordered by creation time, with
// the row id as tie-break: created_at has second resolution, so two inserts
// in the same second would otherwise come back in an unstable order and
// warm-start positions would no longer match insertion order.
func (c *Client) LoadAll(ctx context.Context, groupID string) ([]string, error) {
	var rows []docstore.Document
	_, err := c.client.From("documents").
		Select("*", "", false).
		Eq("group_id", groupID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)

	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Text
	}
	return texts, nil
}

// Save implements docstore.Store.
func (c *Client) Save(ctx context.Context, doc docstore.Document) error {
	var inserted []docstore.Document
	_, err := c.client.From("documents").
		Insert(doc, false, "", "representation", "").
		ExecuteTo(&inserted)

	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// ListGroups implements docstore.Store.
func (c *Client) ListGroups(ctx context.Context) ([]docstore.Group, error) {
	var groups []docstore.Group
	_, err := c.client.From("groups").
		Select("*", "", false).
		ExecuteTo(&groups)

	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GroupForChat implements docstore.Store.
func (c *Client) GroupForChat(ctx context.Context, chatID int64) (string, error) {
	// Check cache first
	if cached := c.getCachedRoute(chatID); cached != "" {
		return cached, nil
	}

	var routes []struct {
		ChatID  int64  `json:"chat_id"`
		GroupID string `json:"group_id"`
	}
	_, err := c.client.From("chats").
		Select("*", "", false).
		Eq("chat_id", fmt.Sprintf("%d", chatID)).
		ExecuteTo(&routes)

	if err != nil {
		return "", fmt.Errorf("failed to resolve chat group: %w", err)
	}

	if len(routes) == 0 {
		return "", docstore.ErrNoGroup
	}

	c.cacheRoute(chatID, routes[0].GroupID)
	return routes[0].GroupID, nil
}

// Close implements docstore.Store.
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// getCachedRoute retrieves a cached chat-to-group mapping.
func (c *Client) getCachedRoute(chatID int64) string {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e, ok := c.cache.byChat[chatID]; ok {
		if time.Now().Before(e.expiresAt) {
			return e.groupID
		}
	}
	return ""
}

// cacheRoute caches a chat-to-group mapping.
func (c *Client) cacheRoute(chatID int64, groupID string) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byChat[chatID] = &cacheEntry{
		groupID:   groupID,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

// Compile-time check that Client implements docstore.Store.
var _ docstore.Store = (*Client)(nil)
