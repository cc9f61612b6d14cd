package domain

import (
	"fmt"
	"strings"
	"time"
)

// OutcomeStatus classifies how processing one account ended.
type OutcomeStatus string

const (
	// OutcomeSuccess means the report reached the document store.
	OutcomeSuccess OutcomeStatus = "SUCCESS"
	// OutcomeDegraded means the store was unreachable but the report was
	// preserved locally. Credential feedback is skipped in this case.
	OutcomeDegraded OutcomeStatus = "DEGRADED"
	// OutcomeFailed means no usable report was produced for the account.
	OutcomeFailed OutcomeStatus = "FAILED"
)

// String returns the string representation of the status.
func (s OutcomeStatus) String() string {
	return string(s)
}

// FailureKind identifies which stage sank a failed account.
type FailureKind string

const (
	FailureLaunch        FailureKind = "LAUNCH_FAILED"
	FailureAuth          FailureKind = "AUTH_FAILED"
	FailureReportTimeout FailureKind = "REPORT_TIMEOUT"
	FailureParse         FailureKind = "PARSE_ERROR"
	FailureStore         FailureKind = "STORE_ERROR"
)

// Outcome records the result of processing a single credential entry.
// Outcomes are process-local; they are never persisted.
type Outcome struct {
	GroupKey  string
	LoginID   string
	Account   int64 // zero until the report identity was parsed
	Status    OutcomeStatus
	Failure   FailureKind // set only when Status is OutcomeFailed
	Detail    string
	LocalPath string // fallback file, set on degraded outcomes
	StartedAt time.Time
	Duration  time.Duration
}

// RunSummary aggregates one pipeline invocation.
type RunSummary struct {
	RunID           string
	StartedAt       time.Time
	Duration        time.Duration
	Selected        int
	SelectionErrors []string
	Outcomes        []Outcome
}

// ByStatus returns the outcomes with the given status, preserving run order.
func (s *RunSummary) ByStatus(status OutcomeStatus) []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// FailuresByKind buckets failed outcomes by the stage that produced them.
func (s *RunSummary) FailuresByKind() map[FailureKind][]Outcome {
	out := make(map[FailureKind][]Outcome)
	for _, o := range s.Outcomes {
		if o.Status == OutcomeFailed {
			out[o.Failure] = append(out[o.Failure], o)
		}
	}
	return out
}

// Format renders the summary for operators: totals first, then every account
// grouped by how it ended.
func (s *RunSummary) Format() string {
	var b strings.Builder

	stored := s.ByStatus(OutcomeSuccess)
	degraded := s.ByStatus(OutcomeDegraded)
	failed := s.ByStatus(OutcomeFailed)

	fmt.Fprintf(&b, "run %s: %d selected, %d stored, %d degraded, %d failed, took %s\n",
		s.RunID, s.Selected, len(stored), len(degraded), len(failed),
		s.Duration.Round(time.Millisecond))

	for _, e := range s.SelectionErrors {
		fmt.Fprintf(&b, "  skipped: %s\n", e)
	}
	for _, o := range stored {
		fmt.Fprintf(&b, "  stored: %s/%s account %d (%s)\n",
			o.GroupKey, o.LoginID, o.Account, o.Duration.Round(time.Millisecond))
	}
	for _, o := range degraded {
		fmt.Fprintf(&b, "  degraded: %s/%s account %d preserved at %s\n",
			o.GroupKey, o.LoginID, o.Account, o.LocalPath)
	}
	for _, o := range failed {
		fmt.Fprintf(&b, "  failed: %s/%s %s: %s\n",
			o.GroupKey, o.LoginID, o.Failure, o.Detail)
	}
	return b.String()
}
