package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

const testReportsColl = "credentials_reports"

func testReport(account int64) *domain.ReportDocument {
	return &domain.ReportDocument{
		Account:  account,
		Name:     "Demo Trader",
		Currency: "USD",
		Type:     "demo",
		Broker:   "Broker Ltd",
		Digits:   2,
		Summary:  map[string]any{"balance": 100000.0, "equity": 100250.5, "deals": 42.0},
		Growth:   map[string]any{"total": 1.5},
		Balance: map[string]any{
			"chart": []any{
				map[string]any{"date": "2024.05.10", "balance": 100000.0, "equity": 100000.0},
				map[string]any{"date": "2024.05.11", "balance": 100250.5, "equity": 100300.0},
			},
		},
	}
}

func TestReportStore_UpsertAndGet(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)
	ctx := context.Background()

	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.Upsert(ctx, testReport(510001)))

	doc, err := store.GetByAccount(ctx, 510001)
	require.NoError(t, err)

	assert.Equal(t, int64(510001), doc.Account)
	assert.Equal(t, "Demo Trader", doc.Name)
	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, "Broker Ltd", doc.Broker)
	assert.Equal(t, 2, doc.Digits)
	assert.Equal(t, 100000.0, doc.Summary["balance"])
	assert.NotZero(t, doc.UpdatedAt, "updatedAt must be stamped by the store")

	// Nested section survives the roundtrip. Embedded documents come back as
	// driver document types, not plain maps.
	chart, ok := doc.Balance["chart"].(primitive.A)
	require.True(t, ok, "chart should decode as an array, got %T", doc.Balance["chart"])
	require.Len(t, chart, 2)
	first := subdoc(t, chart[0])
	assert.Equal(t, 100000.0, first["balance"])
}

func TestReportStore_UpsertIdempotent(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)
	ctx := context.Background()
	require.NoError(t, store.EnsureIndexes(ctx))

	require.NoError(t, store.Upsert(ctx, testReport(510001)))

	firstDoc, err := store.GetByAccount(ctx, 510001)
	require.NoError(t, err)

	// Server clock stamps updatedAt with millisecond precision; give the
	// second write a later timestamp.
	time.Sleep(50 * time.Millisecond)

	second := testReport(510001)
	second.Summary = map[string]any{"balance": 99000.0}
	second.Name = "Demo Trader Renamed"
	require.NoError(t, store.Upsert(ctx, second))

	all, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "re-upsert must not create a second document")

	doc, err := store.GetByAccount(ctx, 510001)
	require.NoError(t, err)
	assert.Equal(t, 99000.0, doc.Summary["balance"], "second write wins")
	assert.Equal(t, "Demo Trader Renamed", doc.Name)
	assert.True(t, doc.UpdatedAt.After(firstDoc.UpdatedAt), "updatedAt must advance: %v -> %v", firstDoc.UpdatedAt, doc.UpdatedAt)
}

func TestReportStore_UpsertRejectsMissingAccount(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)

	err := store.Upsert(context.Background(), &domain.ReportDocument{Name: "No Account"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Upsert(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestReportStore_UpsertKeepsEvaluation(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)
	ctx := context.Background()

	doc := testReport(510001)
	doc.CredentialKey = "FUNDED-MAY"
	doc.Status = string(domain.StatusBreached)
	doc.IsBreached = true
	doc.BreachReasons = []string{"MAX_LOSS_LIMIT: equity fell below allowed minimum"}
	doc.Evaluation = &domain.Evaluation{
		Program: domain.ProgramTwoStepPhase1,
		Status:  domain.StatusBreached,
		Breaches: []domain.Breach{
			{Rule: "MAX_LOSS_LIMIT", Message: "equity fell below allowed minimum", Observed: 91500, Threshold: 92000},
		},
		ProfitableDays: 1,
		EvaluatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Upsert(ctx, doc))

	got, err := store.GetByAccount(ctx, 510001)
	require.NoError(t, err)
	assert.Equal(t, "BREACHED", got.Status)
	assert.True(t, got.IsBreached)
	require.NotNil(t, got.Evaluation)
	assert.Equal(t, domain.ProgramTwoStepPhase1, got.Evaluation.Program)
	require.Len(t, got.Evaluation.Breaches, 1)
	assert.Equal(t, "MAX_LOSS_LIMIT", got.Evaluation.Breaches[0].Rule)
}

func TestReportStore_GetNotFound(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)

	_, err := store.GetByAccount(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportStore_ListOrdered(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)
	ctx := context.Background()

	for _, account := range []int64{510003, 510001, 510002} {
		require.NoError(t, store.Upsert(ctx, testReport(account)))
	}

	all, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(510001), all[0].Account)
	assert.Equal(t, int64(510002), all[1].Account)
	assert.Equal(t, int64(510003), all[2].Account)
}

func TestReportStore_EnsureIndexesIdempotent(t *testing.T) {
	client, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(client, testReportsColl)
	ctx := context.Background()

	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.EnsureIndexes(ctx))

	// The unique index rejects a second raw document for the same account.
	_, err := client.Collection(testReportsColl).InsertOne(ctx, bson.M{"account": int64(510001)})
	require.NoError(t, err)
	_, err = client.Collection(testReportsColl).InsertOne(ctx, bson.M{"account": int64(510001)})
	assert.True(t, isDuplicateKeyError(err), "expected duplicate key error, got %v", err)
}
