package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// setupTestDB creates a MongoDB container for testing.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Client, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "failed to start mongodb container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := Connect(connectCtx, uri, "testdb")
	require.NoError(t, err, "failed to connect to mongodb")

	cleanup := func() {
		_ = client.Close(ctx)
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return client, cleanup
}

// seedDocuments inserts raw documents straight into a collection, bypassing
// the store API. Lets tests shape legacy data (numeric loginId, null flags).
func seedDocuments(t *testing.T, client *Client, collection string, docs ...any) {
	t.Helper()

	_, err := client.Collection(collection).InsertMany(context.Background(), docs)
	require.NoError(t, err, "failed to seed %s", collection)
}

// subdoc normalizes the shapes the driver may decode an embedded document
// into when the target type is any.
func subdoc(t *testing.T, v any) map[string]any {
	t.Helper()

	switch d := v.(type) {
	case primitive.D:
		return d.Map()
	case primitive.M:
		return d
	case map[string]any:
		return d
	}
	t.Fatalf("unexpected subdocument type %T", v)
	return nil
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
