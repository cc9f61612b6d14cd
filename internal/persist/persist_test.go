package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
	"github.com/19arnab190201/guimt5-automation/internal/storage/memory"
)

var testTime = time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func testCandidate() domain.Candidate {
	return domain.Candidate{
		GroupKey: "JULY25",
		Entry:    domain.CredentialEntry{LoginID: "101", Password: "pw", IsActive: true},
		Server:   "MetaQuotes-Demo",
	}
}

func testDoc(account int64) *domain.ReportDocument {
	return &domain.ReportDocument{
		Account:  account,
		Name:     "Trader One",
		Currency: "USD",
		Type:     "demo",
		Broker:   "Broker Ltd",
		Digits:   2,
		Summary:  map[string]any{"deposit": 100000.0},
	}
}

func seededCredentialStore() *memory.CredentialStore {
	store := memory.NewCredentialStore()
	store.Seed([]domain.CredentialGroup{{
		Key: "JULY25",
		Credentials: []domain.CredentialEntry{
			{LoginID: "101", Password: "pw", IsActive: true},
			{LoginID: "202", Password: "pw", IsActive: true},
		},
	}})
	return store
}

// failingReportStore rejects every operation with a fixed error.
type failingReportStore struct {
	err error
}

func (s *failingReportStore) Upsert(context.Context, *domain.ReportDocument) error {
	return s.err
}

func (s *failingReportStore) GetByAccount(context.Context, int64) (*domain.ReportDocument, error) {
	return nil, s.err
}

func (s *failingReportStore) ListAccounts(context.Context) ([]domain.ReportDocument, error) {
	return nil, s.err
}

func newTestCoordinator(reports storage.ReportStore, credentials storage.CredentialStore, localDir string) *Coordinator {
	return New(Options{
		Reports:     reports,
		Credentials: credentials,
		LocalDir:    localDir,
		Clock:       fixedClock,
		Logger:      log.New(io.Discard, "", 0),
	})
}

func entryByLogin(t *testing.T, store *memory.CredentialStore, groupKey, loginID string) domain.CredentialEntry {
	t.Helper()
	groups, err := store.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	for _, g := range groups {
		if g.Key != groupKey {
			continue
		}
		for _, e := range g.Credentials {
			if e.LoginID == loginID {
				return e
			}
		}
	}
	t.Fatalf("entry %s/%s not found", groupKey, loginID)
	return domain.CredentialEntry{}
}

func TestPersistStoresAndFeedsBack(t *testing.T) {
	reports := memory.NewReportStore()
	credentials := seededCredentialStore()
	c := newTestCoordinator(reports, credentials, "")

	result, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if result.Status != StatusStored {
		t.Errorf("status = %s, want %s", result.Status, StatusStored)
	}
	if result.FeedbackErr != nil {
		t.Errorf("feedback error: %v", result.FeedbackErr)
	}
	if result.LocalPath != "" {
		t.Errorf("local path %q with local saves disabled", result.LocalPath)
	}

	stored, err := reports.GetByAccount(context.Background(), 101)
	if err != nil {
		t.Fatalf("GetByAccount: %v", err)
	}
	if stored.Name != "Trader One" {
		t.Errorf("stored name %q", stored.Name)
	}

	entry := entryByLogin(t, credentials, "JULY25", "101")
	if entry.LastChecked == nil || !entry.LastChecked.Equal(testTime) {
		t.Errorf("lastChecked = %v, want %v", entry.LastChecked, testTime)
	}
	if entry.IsBreached == nil || *entry.IsBreached {
		t.Errorf("isBreached = %v, want false", entry.IsBreached)
	}
	if entry.BreachedMetadata != BreachPendingMetadata {
		t.Errorf("breachedMetadata = %q, want %q", entry.BreachedMetadata, BreachPendingMetadata)
	}

	// The sibling entry is untouched.
	sibling := entryByLogin(t, credentials, "JULY25", "202")
	if sibling.LastChecked != nil || sibling.IsBreached != nil || sibling.BreachedMetadata != "" {
		t.Errorf("sibling entry modified: %+v", sibling)
	}
}

func TestPersistWritesLocalCopyOnSuccess(t *testing.T) {
	dir := t.TempDir()
	c := newTestCoordinator(memory.NewReportStore(), seededCredentialStore(), dir)

	result, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if result.Status != StatusStored {
		t.Errorf("status = %s, want %s", result.Status, StatusStored)
	}
	want := filepath.Join(dir, "101.json")
	if result.LocalPath != want {
		t.Errorf("local path = %q, want %q", result.LocalPath, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read local copy: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("local copy is not valid JSON: %v", err)
	}
	if decoded["account"] != float64(101) {
		t.Errorf("local copy account = %v", decoded["account"])
	}
}

func TestPersistFallbackWhenStoreUnavailable(t *testing.T) {
	dir := t.TempDir()
	credentials := seededCredentialStore()
	c := newTestCoordinator(&failingReportStore{err: storage.ErrUnavailable}, credentials, dir)

	result, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if result.Status != StatusDegraded {
		t.Errorf("status = %s, want %s", result.Status, StatusDegraded)
	}
	if result.LocalPath != filepath.Join(dir, "101.json") {
		t.Errorf("local path = %q", result.LocalPath)
	}
	if _, err := os.Stat(result.LocalPath); err != nil {
		t.Errorf("fallback file missing: %v", err)
	}

	// No feedback without a durable store write.
	entry := entryByLogin(t, credentials, "JULY25", "101")
	if entry.LastChecked != nil {
		t.Errorf("credential marked checked after a failed store write: %v", entry.LastChecked)
	}
}

func TestPersistStoreFailureWithoutFallback(t *testing.T) {
	c := newTestCoordinator(&failingReportStore{err: storage.ErrUnavailable}, seededCredentialStore(), "")

	_, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestPersistStoreFailureAndFallbackFailure(t *testing.T) {
	// Point the local dir at an existing file so MkdirAll fails.
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newTestCoordinator(&failingReportStore{err: storage.ErrUnavailable}, seededCredentialStore(), blocked)

	_, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("error = %v, want wrapped ErrUnavailable", err)
	}
}

func TestPersistFeedbackFailureNotFatal(t *testing.T) {
	reports := memory.NewReportStore()
	// Empty credential store: the targeted entry does not exist.
	c := newTestCoordinator(reports, memory.NewCredentialStore(), "")

	result, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if result.Status != StatusStored {
		t.Errorf("status = %s, want %s", result.Status, StatusStored)
	}
	if !errors.Is(result.FeedbackErr, storage.ErrNotFound) {
		t.Errorf("feedback error = %v, want ErrNotFound", result.FeedbackErr)
	}

	// The report write itself survived.
	if _, err := reports.GetByAccount(context.Background(), 101); err != nil {
		t.Errorf("report not stored: %v", err)
	}
}

func TestPersistLocalCopyFailureOnlyLogged(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newTestCoordinator(memory.NewReportStore(), seededCredentialStore(), blocked)

	result, err := c.Persist(context.Background(), testCandidate(), testDoc(101))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if result.Status != StatusStored {
		t.Errorf("status = %s, want %s", result.Status, StatusStored)
	}
	if result.LocalPath != "" {
		t.Errorf("local path = %q after failed copy", result.LocalPath)
	}
}
