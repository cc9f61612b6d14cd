package memory

import (
	"context"
	"sync"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// CredentialStore is an in-memory implementation of storage.CredentialStore.
type CredentialStore struct {
	mu     sync.RWMutex
	groups []domain.CredentialGroup // collection order preserved
	clock  func() time.Time
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{clock: time.Now}
}

// WithClock overrides the time source used to stamp updatedAt.
func (s *CredentialStore) WithClock(clock func() time.Time) *CredentialStore {
	s.clock = clock
	return s
}

// Seed replaces the store contents with the given groups.
func (s *CredentialStore) Seed(groups []domain.CredentialGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = make([]domain.CredentialGroup, 0, len(groups))
	for _, g := range groups {
		s.groups = append(s.groups, copyGroup(g))
	}
}

// ListGroups retrieves all credential groups in collection order.
func (s *CredentialStore) ListGroups(_ context.Context) ([]domain.CredentialGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CredentialGroup, 0, len(s.groups))
	for _, g := range s.groups {
		result = append(result, copyGroup(g))
	}
	return result, nil
}

// UpdateEntryStatus applies the update to exactly one entry, addressed by
// group key and login id. Returns ErrNotFound if no such entry exists.
func (s *CredentialStore) UpdateEntryStatus(_ context.Context, groupKey, loginID string, update storage.EntryStatusUpdate) error {
	if groupKey == "" || loginID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for gi := range s.groups {
		if s.groups[gi].Key != groupKey {
			continue
		}
		for ei := range s.groups[gi].Credentials {
			e := &s.groups[gi].Credentials[ei]
			if e.LoginID != loginID {
				continue
			}
			lastChecked := update.LastChecked
			isBreached := update.IsBreached
			e.LastChecked = &lastChecked
			e.IsBreached = &isBreached
			e.BreachedMetadata = update.BreachedMetadata
			s.groups[gi].UpdatedAt = s.clock()
			return nil
		}
	}
	return storage.ErrNotFound
}

func copyGroup(g domain.CredentialGroup) domain.CredentialGroup {
	out := g
	out.Credentials = make([]domain.CredentialEntry, len(g.Credentials))
	for i, e := range g.Credentials {
		out.Credentials[i] = copyEntry(e)
	}
	return out
}

func copyEntry(e domain.CredentialEntry) domain.CredentialEntry {
	out := e
	if e.AssignedAt != nil {
		v := *e.AssignedAt
		out.AssignedAt = &v
	}
	if e.IsBreached != nil {
		v := *e.IsBreached
		out.IsBreached = &v
	}
	if e.LastChecked != nil {
		v := *e.LastChecked
		out.LastChecked = &v
	}
	return out
}

// Verify interface compliance at compile time.
var _ storage.CredentialStore = (*CredentialStore)(nil)
