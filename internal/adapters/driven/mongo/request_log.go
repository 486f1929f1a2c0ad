// Package mongo stores analyze request analytics in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RequestLogStore = (*RequestLogStore)(nil)

// Defaults
const (
	DefaultDatabase   = "policylens"
	DefaultCollection = "analysis_requests"
	connectTimeout    = 10 * time.Second
)

// Config holds MongoDB connection configuration
type Config struct {
	URI        string
	Database   string
	Collection string
	Logger     *slog.Logger
}

// Client owns the driver connection backing a RequestLogStore
type Client struct {
	client *mongo.Client
	store  *RequestLogStore
}

// Connect dials MongoDB, verifies the connection and ensures collection indexes
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	store := NewRequestLogStore(client.Database(cfg.Database).Collection(cfg.Collection))
	if err := store.EnsureIndexes(ctx); err != nil {
		// Indexes only speed up analytics queries
		cfg.Logger.Warn("failed to create mongo indexes", "collection", cfg.Collection, "error", err)
	}

	cfg.Logger.Info("connected to mongo", "database", cfg.Database, "collection", cfg.Collection)
	return &Client{client: client, store: store}, nil
}

// Store returns the request log store on the configured collection
func (c *Client) Store() *RequestLogStore {
	return c.store
}

// Ping checks if the deployment is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// RequestLogStore implements driven.RequestLogStore on one collection.
// Documents use the bson tags of domain.AnalysisRequestLog.
type RequestLogStore struct {
	coll *mongo.Collection
}

// NewRequestLogStore creates a store writing to coll
func NewRequestLogStore(coll *mongo.Collection) *RequestLogStore {
	return &RequestLogStore{coll: coll}
}

// EnsureIndexes creates the url and created_at indexes
func (s *RequestLogStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Append inserts one request log document
func (s *RequestLogStore) Append(ctx context.Context, entry *domain.AnalysisRequestLog) error {
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

// CountByURL returns how many requests were logged for url
func (s *RequestLogStore) CountByURL(ctx context.Context, url string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"url": url})
	if err != nil {
		return 0, fmt.Errorf("failed to count request logs: %w", err)
	}
	return count, nil
}
