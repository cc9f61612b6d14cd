package mongo

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// CredentialStore implements storage.CredentialStore on the credentialkeys
// collection.
type CredentialStore struct {
	coll *mongo.Collection
}

// NewCredentialStore creates a new CredentialStore.
func NewCredentialStore(client *Client, collection string) *CredentialStore {
	return &CredentialStore{coll: client.Collection(collection)}
}

// Compile-time interface check.
var _ storage.CredentialStore = (*CredentialStore)(nil)

// ListGroups retrieves all credential groups in collection order.
func (s *CredentialStore) ListGroups(ctx context.Context) ([]domain.CredentialGroup, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		if isUnavailableError(err) {
			return nil, fmt.Errorf("list credential groups: %w", storage.ErrUnavailable)
		}
		return nil, fmt.Errorf("list credential groups: %w", err)
	}
	defer cur.Close(ctx)

	var groups []domain.CredentialGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode credential groups: %w", err)
	}
	return groups, nil
}

// UpdateEntryStatus applies the update to exactly one entry, addressed by
// group key and login id. Existing documents store loginId either as a
// string or as a number, so the filter matches both representations.
func (s *CredentialStore) UpdateEntryStatus(ctx context.Context, groupKey, loginID string, update storage.EntryStatusUpdate) error {
	if groupKey == "" || loginID == "" {
		return storage.ErrInvalidInput
	}

	filter := bson.M{
		"key": groupKey,
		"credentials": bson.M{
			"$elemMatch": bson.M{"loginId": bson.M{"$in": loginVariants(loginID)}},
		},
	}
	change := bson.M{
		"$set": bson.M{
			"credentials.$.lastChecked":      update.LastChecked,
			"credentials.$.isBreached":       update.IsBreached,
			"credentials.$.breachedMetadata": update.BreachedMetadata,
		},
		"$currentDate": bson.M{"updatedAt": true},
	}

	res, err := s.coll.UpdateOne(ctx, filter, change)
	if err != nil {
		if isUnavailableError(err) {
			return fmt.Errorf("update credential status: %w", storage.ErrUnavailable)
		}
		return fmt.Errorf("update credential status: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// loginVariants returns the BSON values a stored loginId may take. MongoDB
// numeric equality spans int32/int64/double, so one int64 variant covers all
// numeric encodings.
func loginVariants(loginID string) bson.A {
	variants := bson.A{loginID}
	if n, err := strconv.ParseInt(loginID, 10, 64); err == nil {
		variants = append(variants, n)
	}
	return variants
}
