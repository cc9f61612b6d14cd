// Package persist coordinates the writes that follow a parsed report: the
// idempotent upsert into the report store, the targeted credential feedback,
// and the local JSON fallback that keeps a report from being lost when the
// store is unreachable.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/observability"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// BreachPendingMetadata marks a credential entry whose report was just
// stored. The evaluation verdict is published separately; consumers of the
// credential collection read this marker as "checked, verdict pending".
const BreachPendingMetadata = "will be known soon"

// Status describes where a persisted report ended up.
type Status string

const (
	// StatusStored means the document store accepted the report.
	StatusStored Status = "STORED"
	// StatusDegraded means the store was unreachable and the report was
	// preserved in the local fallback directory instead.
	StatusDegraded Status = "DEGRADED"
)

// Result reports how a document was persisted.
type Result struct {
	Status Status
	// LocalPath is the local JSON file, set whenever one was written: the
	// fallback file on degraded results, the convenience copy otherwise.
	LocalPath string
	// FeedbackErr is a non-fatal credential feedback failure. The report
	// itself was stored; only the lastChecked write-back was lost.
	FeedbackErr error
}

// Options configures a Coordinator.
type Options struct {
	Reports     storage.ReportStore
	Credentials storage.CredentialStore
	// LocalDir is where JSON copies land. Empty disables both the success
	// copy and the degraded fallback.
	LocalDir string
	// Clock overrides the time source. Used by tests.
	Clock func() time.Time
	// Logger defaults to log.Default().
	Logger *log.Logger
	// Metrics may be nil.
	Metrics *observability.Metrics
}

// Coordinator persists normalized reports and feeds verification status back
// to the credential that produced them.
type Coordinator struct {
	reports     storage.ReportStore
	credentials storage.CredentialStore
	localDir    string
	clock       func() time.Time
	logger      *log.Logger
	metrics     *observability.Metrics
}

// New creates a coordinator.
func New(opts Options) *Coordinator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Coordinator{
		reports:     opts.Reports,
		credentials: opts.Credentials,
		localDir:    opts.LocalDir,
		clock:       clock,
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// Persist writes doc to the report store and, on success, marks the
// credential entry that produced it as freshly checked. A store failure
// degrades to the local fallback when one is configured; with no fallback
// the store error is returned and the account counts as failed.
//
// Credential feedback runs only after a successful store write, so an
// unverified account can never look verified. A feedback failure does not
// fail the account: the report is already durable, and the entry will be
// picked up again on the next run precisely because lastChecked never
// advanced.
func (c *Coordinator) Persist(ctx context.Context, cand domain.Candidate, doc *domain.ReportDocument) (Result, error) {
	if err := c.reports.Upsert(ctx, doc); err != nil {
		c.metrics.RecordStoreWrite(false)
		c.logger.Printf("account %d: store write failed: %v", doc.Account, err)
		if c.localDir == "" {
			return Result{}, fmt.Errorf("store report for account %d: %w", doc.Account, err)
		}
		path, saveErr := c.writeLocal(doc)
		if saveErr != nil {
			return Result{}, fmt.Errorf("store report for account %d: %w (local fallback: %v)", doc.Account, err, saveErr)
		}
		c.metrics.RecordFallbackWrite()
		c.logger.Printf("account %d: report preserved at %s", doc.Account, path)
		return Result{Status: StatusDegraded, LocalPath: path}, nil
	}
	c.metrics.RecordStoreWrite(true)

	result := Result{Status: StatusStored}

	update := storage.EntryStatusUpdate{
		LastChecked:      c.clock(),
		IsBreached:       false,
		BreachedMetadata: BreachPendingMetadata,
	}
	if err := c.credentials.UpdateEntryStatus(ctx, cand.GroupKey, cand.Entry.LoginID, update); err != nil {
		c.logger.Printf("account %d: credential feedback failed for %s/%s: %v",
			doc.Account, cand.GroupKey, cand.Entry.LoginID, err)
		result.FeedbackErr = err
	}

	if c.localDir != "" {
		path, err := c.writeLocal(doc)
		if err != nil {
			c.logger.Printf("account %d: local copy failed: %v", doc.Account, err)
		} else {
			result.LocalPath = path
		}
	}
	return result, nil
}

// writeLocal renders doc as indented JSON under the local directory, named
// by account number so reruns overwrite rather than accumulate.
func (c *Coordinator) writeLocal(doc *domain.ReportDocument) (string, error) {
	if err := os.MkdirAll(c.localDir, 0o755); err != nil {
		return "", fmt.Errorf("create local report dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(c.localDir, fmt.Sprintf("%d.json", doc.Account))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write local report: %w", err)
	}
	return path, nil
}
