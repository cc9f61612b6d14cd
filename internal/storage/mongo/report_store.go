package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// ReportStore implements storage.ReportStore on the credentials_reports
// collection, keyed by the unique account number.
type ReportStore struct {
	coll *mongo.Collection
}

// NewReportStore creates a new ReportStore.
func NewReportStore(client *Client, collection string) *ReportStore {
	return &ReportStore{coll: client.Collection(collection)}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// EnsureIndexes creates the unique account index. Safe to call repeatedly.
func (s *ReportStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create account index: %w", err)
	}
	return nil
}

// Upsert stores the document keyed by its account number. Re-running the
// pipeline for an account overwrites the previous report; updatedAt is
// stamped server-side so it always advances.
func (s *ReportStore) Upsert(ctx context.Context, doc *domain.ReportDocument) error {
	if doc == nil || doc.Account == 0 {
		return storage.ErrInvalidInput
	}

	// updatedAt belongs to $currentDate; keep it out of the $set payload.
	payload := *doc
	payload.UpdatedAt = time.Time{}

	filter := bson.M{"account": doc.Account}
	change := bson.M{
		"$set":         payload,
		"$currentDate": bson.M{"updatedAt": true},
	}

	_, err := s.coll.UpdateOne(ctx, filter, change, options.Update().SetUpsert(true))
	if err != nil {
		if isUnavailableError(err) {
			return fmt.Errorf("upsert report %d: %w", doc.Account, storage.ErrUnavailable)
		}
		if isDuplicateKeyError(err) {
			// Concurrent upserts for the same fresh account can race on the
			// unique index; the document exists, so the write conflicts.
			return storage.ErrWriteConflict
		}
		return fmt.Errorf("upsert report %d: %w", doc.Account, err)
	}
	return nil
}

// GetByAccount retrieves the report for an account. Returns ErrNotFound if
// no report has been stored.
func (s *ReportStore) GetByAccount(ctx context.Context, account int64) (*domain.ReportDocument, error) {
	var doc domain.ReportDocument
	err := s.coll.FindOne(ctx, bson.M{"account": account}).Decode(&doc)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		if isUnavailableError(err) {
			return nil, fmt.Errorf("get report %d: %w", account, storage.ErrUnavailable)
		}
		return nil, fmt.Errorf("get report %d: %w", account, err)
	}
	return &doc, nil
}

// ListAccounts retrieves all stored reports ordered by account number.
func (s *ReportStore) ListAccounts(ctx context.Context) ([]domain.ReportDocument, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "account", Value: 1}}))
	if err != nil {
		if isUnavailableError(err) {
			return nil, fmt.Errorf("list reports: %w", storage.ErrUnavailable)
		}
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer cur.Close(ctx)

	var docs []domain.ReportDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return docs, nil
}
