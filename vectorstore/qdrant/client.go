// Package qdrant implements vectorstore.Index on top of a remote Qdrant
// deployment. Each group gets its own collection; point identity is a
// deterministic UUID derived from the collection name and the insertion
// position, never from the collection's current population, so retried
// inserts are idempotent upserts and points from prior sessions are never
// overwritten by new ones.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/creastat/knowledgebot/vectorstore"
)

// Namespace for deterministic point ids. Changing it orphans every point
// written under the old namespace.
var pointNamespace = uuid.MustParse("6ba7b814-9dad-11d1-80b4-00c04fd430c8")

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g. "https://example.qdrant.io:6334").
	URL string

	// APIKey is an optional API key for authentication.
	APIKey string

	// CollectionPrefix is prepended to group ids to form collection names.
	CollectionPrefix string

	// Dimension is the embedding dimension for new collections.
	Dimension int
}

// Client wraps a shared Qdrant connection and opens per-group indexes.
type Client struct {
	client *qdrant.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a new Qdrant client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", vectorstore.ErrInvalidDimension, cfg.Dimension)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Parse the URL to extract host, port, and scheme
	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Client{
		client: qdrantClient,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Opener returns a vectorstore.Opener that binds a group to its collection,
// creating the collection when it does not exist yet.
func (c *Client) Opener() vectorstore.Opener {
	return func(ctx context.Context, groupID string) (vectorstore.Index, error) {
		collection := c.cfg.CollectionPrefix + groupID
		exists, err := c.client.CollectionExists(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("%w: collection check: %v", vectorstore.ErrUnavailable, err)
		}
		if !exists {
			err := c.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: collection,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     uint64(c.cfg.Dimension),
					Distance: qdrant.Distance_Euclid,
				}),
			})
			if err != nil {
				return nil, fmt.Errorf("%w: create collection: %v", vectorstore.ErrUnavailable, err)
			}
			c.logger.Info("created qdrant collection",
				zap.String("collection", collection),
				zap.Int("dimension", c.cfg.Dimension),
			)
		}
		return &Index{client: c.client, collection: collection, logger: c.logger}, nil
	}
}

// Close closes the shared Qdrant connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Index is one group's view of its Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Insert implements vectorstore.Index. The upsert waits for the write to be
// applied so a subsequent query sees the point.
func (x *Index) Insert(ctx context.Context, position int, vector []float32) error {
	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(pointID(x.collection, position)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"position": int64(position),
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", vectorstore.ErrUnavailable, err)
	}
	return nil
}

// Query implements vectorstore.Index. Ordering is the server's; with the
// Euclid metric the score is the distance and results arrive ascending.
func (x *Index) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	if k <= 0 {
		return []vectorstore.Match{}, nil
	}

	points, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", vectorstore.ErrUnavailable, err)
	}

	matches := make([]vectorstore.Match, 0, len(points))
	for _, point := range points {
		value, ok := point.Payload["position"]
		if !ok {
			// Foreign point without our payload; nothing to map it to.
			x.logger.Warn("qdrant point missing position payload",
				zap.String("collection", x.collection),
			)
			continue
		}
		matches = append(matches, vectorstore.Match{
			Position: int(value.GetIntegerValue()),
			Distance: point.Score,
		})
	}
	return matches, nil
}

// Close implements vectorstore.Index. The underlying connection is shared
// across groups and owned by Client, so there is nothing to release here.
func (x *Index) Close() error {
	return nil
}

// pointID derives the stable identity of the point stored at position in
// collection. Deterministic so retries upsert the same logical point, and
// independent of how many points the collection currently holds.
func pointID(collection string, position int) string {
	return uuid.NewSHA1(pointNamespace, []byte(collection+"/"+strconv.Itoa(position))).String()
}

// Compile-time check that Index implements vectorstore.Index.
var _ vectorstore.Index = (*Index)(nil)
