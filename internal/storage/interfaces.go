package storage

import (
	"context"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
)

// EntryStatusUpdate carries the verification fields written back to a single
// credential entry after its report was stored.
type EntryStatusUpdate struct {
	LastChecked      time.Time
	IsBreached       bool
	BreachedMetadata string
}

// CredentialStore provides access to the credentialkeys collection.
type CredentialStore interface {
	// ListGroups retrieves all credential groups in collection order.
	ListGroups(ctx context.Context) ([]domain.CredentialGroup, error)

	// UpdateEntryStatus applies the update to exactly one entry, addressed by
	// group key and login id, and refreshes the group's updatedAt. Sibling
	// entries are left untouched. Returns ErrNotFound if no such entry exists.
	UpdateEntryStatus(ctx context.Context, groupKey, loginID string, update EntryStatusUpdate) error
}

// ReportStore provides access to the credentials_reports collection.
type ReportStore interface {
	// Upsert stores the document keyed by its account number, replacing any
	// previous report for that account. The store stamps updatedAt. Returns
	// ErrInvalidInput if the account number is missing.
	Upsert(ctx context.Context, doc *domain.ReportDocument) error

	// GetByAccount retrieves the report for an account. Returns ErrNotFound
	// if no report has been stored.
	GetByAccount(ctx context.Context, account int64) (*domain.ReportDocument, error)

	// ListAccounts retrieves all stored reports ordered by account number.
	ListAccounts(ctx context.Context) ([]domain.ReportDocument, error)
}

// Pinger is implemented by backends that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
