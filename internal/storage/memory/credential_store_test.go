package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

func boolPtr(b bool) *bool { return &b }

func testGroups() []domain.CredentialGroup {
	return []domain.CredentialGroup{
		{
			Key: "FUNDED-MAY",
			Credentials: []domain.CredentialEntry{
				{LoginID: "510001", Password: "pw1", IsActive: true},
				{LoginID: "510002", Password: "pw2", IsActive: true, IsBreached: boolPtr(true)},
			},
		},
		{
			Key: "FUNDED-JUNE",
			Credentials: []domain.CredentialEntry{
				{LoginID: "510003", Password: "pw3", IsActive: false},
			},
		},
	}
}

func TestCredentialStore_SeedAndList(t *testing.T) {
	store := NewCredentialStore()
	store.Seed(testGroups())

	groups, err := store.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "FUNDED-MAY" || groups[1].Key != "FUNDED-JUNE" {
		t.Errorf("Group order not preserved: %s, %s", groups[0].Key, groups[1].Key)
	}
	if len(groups[0].Credentials) != 2 {
		t.Errorf("Expected 2 entries in first group, got %d", len(groups[0].Credentials))
	}
}

func TestCredentialStore_UpdateEntryStatus(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewCredentialStore().WithClock(func() time.Time { return now })
	store.Seed(testGroups())
	ctx := context.Background()

	update := storage.EntryStatusUpdate{
		LastChecked:      now,
		IsBreached:       false,
		BreachedMetadata: "will be known soon",
	}
	if err := store.UpdateEntryStatus(ctx, "FUNDED-MAY", "510001", update); err != nil {
		t.Fatalf("UpdateEntryStatus failed: %v", err)
	}

	groups, _ := store.ListGroups(ctx)
	target := groups[0].Credentials[0]
	if target.LastChecked == nil || !target.LastChecked.Equal(now) {
		t.Errorf("lastChecked not set: %v", target.LastChecked)
	}
	if target.IsBreached == nil || *target.IsBreached {
		t.Errorf("isBreached should be explicit false, got %v", target.IsBreached)
	}
	if target.BreachedMetadata != "will be known soon" {
		t.Errorf("breachedMetadata = %q", target.BreachedMetadata)
	}
	if !groups[0].UpdatedAt.Equal(now) {
		t.Errorf("group updatedAt = %v, want %v", groups[0].UpdatedAt, now)
	}

	// Sibling entry must be untouched.
	sibling := groups[0].Credentials[1]
	if sibling.LastChecked != nil {
		t.Errorf("sibling lastChecked should stay unset, got %v", sibling.LastChecked)
	}
	if sibling.IsBreached == nil || !*sibling.IsBreached {
		t.Errorf("sibling isBreached changed: %v", sibling.IsBreached)
	}

	// Other group must be untouched.
	if !groups[1].UpdatedAt.IsZero() {
		t.Errorf("other group updatedAt changed: %v", groups[1].UpdatedAt)
	}
}

func TestCredentialStore_UpdateEntryStatusNotFound(t *testing.T) {
	store := NewCredentialStore()
	store.Seed(testGroups())
	ctx := context.Background()

	err := store.UpdateEntryStatus(ctx, "FUNDED-MAY", "999999", storage.EntryStatusUpdate{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown login, got %v", err)
	}

	err = store.UpdateEntryStatus(ctx, "NO-SUCH-GROUP", "510001", storage.EntryStatusUpdate{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown group, got %v", err)
	}

	err = store.UpdateEntryStatus(ctx, "", "510001", storage.EntryStatusUpdate{})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty group key, got %v", err)
	}
}

func TestCredentialStore_ListReturnsCopies(t *testing.T) {
	store := NewCredentialStore()
	store.Seed(testGroups())
	ctx := context.Background()

	groups, _ := store.ListGroups(ctx)
	groups[0].Credentials[0].Password = "mutated"
	groups[0].Key = "mutated"

	again, _ := store.ListGroups(ctx)
	if again[0].Key != "FUNDED-MAY" {
		t.Errorf("Stored group key mutated through returned slice")
	}
	if again[0].Credentials[0].Password != "pw1" {
		t.Errorf("Stored entry mutated through returned slice")
	}
}
