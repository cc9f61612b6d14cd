package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// serverSelectionTimeout bounds how long the driver searches for a reachable
// server before an operation fails. Keeps an unreachable deployment from
// stalling the pipeline for the full operation timeout.
const serverSelectionTimeout = 10 * time.Second

// Client wraps a mongo.Client and database handle for dependency injection.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect creates a client and verifies connectivity with a ping.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", storage.ErrUnavailable)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Ping verifies the deployment is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", storage.ErrUnavailable)
	}
	return nil
}

// Database returns the configured database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Collection returns a collection handle in the configured database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// isDuplicateKeyError checks if error is a unique index violation.
func isDuplicateKeyError(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// isNotFoundError checks if error indicates no matching document.
func isNotFoundError(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// isUnavailableError checks if error indicates the deployment is unreachable.
func isUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
