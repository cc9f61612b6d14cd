package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/evaluate"
	"github.com/19arnab190201/guimt5-automation/internal/extract"
	"github.com/19arnab190201/guimt5-automation/internal/normalize"
	"github.com/19arnab190201/guimt5-automation/internal/observability"
	"github.com/19arnab190201/guimt5-automation/internal/persist"
	"github.com/19arnab190201/guimt5-automation/internal/session"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// SessionRunner drives one terminal session and yields the report artifact.
// Implemented by session.Orchestrator.
type SessionRunner interface {
	Run(ctx context.Context, loginID, password, server string) (*session.Result, error)
}

// Persister stores one normalized report and applies credential feedback.
// Implemented by persist.Coordinator.
type Persister interface {
	Persist(ctx context.Context, cand domain.Candidate, doc *domain.ReportDocument) (persist.Result, error)
}

// Options for creating a Runner.
type Options struct {
	// Required collaborators.
	Credentials storage.CredentialStore
	Sessions    SessionRunner
	Coordinator Persister

	// Server is the terminal server candidates authenticate against.
	Server string

	// Extract pulls the raw payload from a saved artifact. Defaults to
	// extract.ExtractFile.
	Extract func(path string) (map[string]any, error)
	// Normalize converts a raw payload into the canonical document.
	// Defaults to normalize.Normalize.
	Normalize func(raw map[string]any) (*domain.ReportDocument, error)
	// Evaluator applies program rules between normalization and persistence.
	// Defaults to evaluate.NewEvaluator().
	Evaluator *evaluate.Evaluator

	// InterAccountDelay separates consecutive sessions so the terminal and
	// broker see distinct logins, not a reconnect storm. Defaults to 5s.
	InterAccountDelay time.Duration

	// Clock and Wait override time sources. Used by tests.
	Clock func() time.Time
	Wait  func(ctx context.Context, d time.Duration) error

	// Logger defaults to log.Default().
	Logger *log.Logger
	// Metrics may be nil.
	Metrics *observability.Metrics
	// Verbose adds per-state transition logging for each session.
	Verbose bool
}

// Runner processes all selected accounts sequentially. One run is one pass
// over the credential collection; accounts never abort each other.
type Runner struct {
	credentials storage.CredentialStore
	sessions    SessionRunner
	coordinator Persister

	server    string
	extract   func(path string) (map[string]any, error)
	normalize func(raw map[string]any) (*domain.ReportDocument, error)
	evaluator *evaluate.Evaluator

	delay   time.Duration
	clock   func() time.Time
	wait    func(ctx context.Context, d time.Duration) error
	logger  *log.Logger
	metrics *observability.Metrics
	verbose bool
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	extractFn := opts.Extract
	if extractFn == nil {
		extractFn = extract.ExtractFile
	}
	normalizeFn := opts.Normalize
	if normalizeFn == nil {
		normalizeFn = normalize.Normalize
	}
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = evaluate.NewEvaluator()
	}
	delay := opts.InterAccountDelay
	if delay == 0 {
		delay = 5 * time.Second
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	wait := opts.Wait
	if wait == nil {
		wait = sleepWait
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		credentials: opts.Credentials,
		sessions:    opts.Sessions,
		coordinator: opts.Coordinator,
		server:      opts.Server,
		extract:     extractFn,
		normalize:   normalizeFn,
		evaluator:   evaluator,
		delay:       delay,
		clock:       clock,
		wait:        wait,
		logger:      logger,
		metrics:     opts.Metrics,
		verbose:     opts.Verbose,
	}
}

func sleepWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run processes every selected account once and returns the summary. Only a
// credential load failure is fatal: without the groups there is nothing to
// process. Everything after selection is isolated per account.
func (r *Runner) Run(ctx context.Context) (*domain.RunSummary, error) {
	start := r.clock()
	summary := &domain.RunSummary{RunID: uuid.NewString(), StartedAt: start}
	r.metrics.RecordRun()

	groups, err := r.credentials.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential groups: %w", err)
	}

	candidates, selectionErrs := Select(groups, r.server)
	summary.Selected = len(candidates)
	for _, serr := range selectionErrs {
		summary.SelectionErrors = append(summary.SelectionErrors, serr.Error())
		r.logger.Printf("run %s: skipped %v", summary.RunID, serr)
	}
	r.logger.Printf("run %s: %d groups, %d candidates selected", summary.RunID, len(groups), len(candidates))

	for i, cand := range candidates {
		if i > 0 {
			if err := r.wait(ctx, r.delay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		outcome := r.processAccount(ctx, cand)
		summary.Outcomes = append(summary.Outcomes, outcome)
		r.metrics.RecordAccount(string(outcome.Status))
		r.logOutcome(summary.RunID, outcome)
	}
	if ctx.Err() != nil && len(summary.Outcomes) < len(candidates) {
		r.logger.Printf("run %s: cancelled after %d of %d accounts",
			summary.RunID, len(summary.Outcomes), len(candidates))
	}

	summary.Duration = r.clock().Sub(start)
	return summary, nil
}

// processAccount walks one candidate through the whole chain. Every error is
// absorbed into the outcome; nothing escapes to abort the run.
func (r *Runner) processAccount(ctx context.Context, cand domain.Candidate) domain.Outcome {
	started := r.clock()
	outcome := domain.Outcome{
		GroupKey:  cand.GroupKey,
		LoginID:   cand.Entry.LoginID,
		StartedAt: started,
	}
	fail := func(kind domain.FailureKind, err error) domain.Outcome {
		outcome.Status = domain.OutcomeFailed
		outcome.Failure = kind
		outcome.Detail = err.Error()
		outcome.Duration = r.clock().Sub(started)
		return outcome
	}

	sres, err := r.sessions.Run(ctx, cand.Entry.LoginID, cand.Entry.Password, cand.Server)
	r.recordSession(sres, err)
	if err != nil {
		var serr *session.Error
		if errors.As(err, &serr) {
			return fail(serr.Kind, err)
		}
		// Not a state-machine failure; the session never got going.
		return fail(domain.FailureLaunch, err)
	}
	if r.verbose {
		for _, tr := range sres.Transitions {
			r.logger.Printf("account %s: %s -> %s", cand.Entry.LoginID, tr.From, tr.To)
		}
	}

	raw, err := r.extract(sres.ArtifactPath)
	if err != nil {
		return fail(domain.FailureParse, err)
	}
	doc, err := r.normalize(raw)
	if err != nil {
		return fail(domain.FailureParse, err)
	}
	outcome.Account = doc.Account

	evaluation := r.evaluator.Evaluate(doc, cand.GroupKey)
	evaluate.Attach(doc, evaluation)
	if r.verbose {
		r.logger.Printf("account %d: program %s, status %s", doc.Account, evaluation.Program, evaluation.Status)
	}

	pres, err := r.coordinator.Persist(ctx, cand, doc)
	if err != nil {
		return fail(domain.FailureStore, err)
	}

	outcome.Status = domain.OutcomeSuccess
	if pres.Status == persist.StatusDegraded {
		outcome.Status = domain.OutcomeDegraded
		outcome.LocalPath = pres.LocalPath
	}
	if pres.FeedbackErr != nil {
		outcome.Detail = fmt.Sprintf("credential feedback failed: %v", pres.FeedbackErr)
	}
	outcome.Duration = r.clock().Sub(started)
	return outcome
}

func (r *Runner) recordSession(res *session.Result, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
		var serr *session.Error
		if errors.As(err, &serr) {
			status = string(serr.Kind)
		}
	}
	var seconds float64
	if res != nil {
		seconds = res.Duration.Seconds()
	}
	r.metrics.RecordSession(status, seconds)
}

func (r *Runner) logOutcome(runID string, o domain.Outcome) {
	switch o.Status {
	case domain.OutcomeFailed:
		r.logger.Printf("run %s: account %s/%s failed (%s): %s", runID, o.GroupKey, o.LoginID, o.Failure, o.Detail)
	case domain.OutcomeDegraded:
		r.logger.Printf("run %s: account %s/%s degraded, report preserved at %s", runID, o.GroupKey, o.LoginID, o.LocalPath)
	default:
		r.logger.Printf("run %s: account %s/%s stored as account %d", runID, o.GroupKey, o.LoginID, o.Account)
	}
}
