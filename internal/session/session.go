// Package session drives one account through the terminal from launch to
// exported report. The orchestrator is an explicit state machine whose
// transitions follow observed driver signals under bounded timeouts; it owns
// exactly one terminal instance at a time and never retries within a run.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/terminal"
)

// State identifies a position in the session lifecycle.
type State string

const (
	StateIdle             State = "IDLE"
	StateLaunching        State = "LAUNCHING"
	StateAuthenticating   State = "AUTHENTICATING"
	StateRequestingReport State = "REQUESTING_REPORT"
	StateAwaitingArtifact State = "AWAITING_ARTIFACT"
	StateCompleted        State = "COMPLETED"
	StateFailed           State = "FAILED"
)

// ErrSessionInProgress is returned by Run while a previous session has not
// yet resolved. The terminal supports a single interactive instance, so
// sessions never overlap.
var ErrSessionInProgress = errors.New("session already in progress")

// Error is a terminal session failure: which state sank the session and why.
type Error struct {
	Kind  domain.FailureKind
	State State
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session failed in %s: %s: %v", e.State, e.Kind, e.Err)
	}
	return fmt.Sprintf("session failed in %s: %s", e.State, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Timeouts bounds every waiting state. A session can never block longer than
// the sum of these.
type Timeouts struct {
	// Launch bounds terminal startup confirmation.
	Launch time.Duration
	// Auth bounds login confirmation. Wrong credentials and an unresponsive
	// terminal both surface as this timeout; they are indistinguishable.
	Auth time.Duration
	// ReportRequest bounds the report export command.
	ReportRequest time.Duration
	// Artifact bounds how long the exported file may take to appear.
	Artifact time.Duration
	// PollInterval is the pause between artifact probes.
	PollInterval time.Duration
}

// DefaultTimeouts returns the stock limits.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Launch:        30 * time.Second,
		Auth:          20 * time.Second,
		ReportRequest: 15 * time.Second,
		Artifact:      60 * time.Second,
		PollInterval:  2 * time.Second,
	}
}

// Transition records one observed state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Result is a completed session: the located artifact plus the transition
// trace for diagnostics.
type Result struct {
	LoginID      string
	ArtifactPath string
	Transitions  []Transition
	StartedAt    time.Time
	Duration     time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	// Driver controls the terminal. Required.
	Driver terminal.Driver
	// Timeouts default to DefaultTimeouts().
	Timeouts Timeouts
	// Clock overrides the time source. Used by tests.
	Clock func() time.Time
	// Wait overrides the inter-poll pause. Used by tests; defaults to a
	// context-aware sleep.
	Wait func(ctx context.Context, d time.Duration) error
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Orchestrator runs sessions one at a time against a single terminal.
type Orchestrator struct {
	driver   terminal.Driver
	timeouts Timeouts
	clock    func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
	logger   *log.Logger

	running atomic.Bool
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	timeouts := opts.Timeouts
	if timeouts == (Timeouts{}) {
		timeouts = DefaultTimeouts()
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

	return &Orchestrator{
		driver:   opts.Driver,
		timeouts: timeouts,
		clock:    clock,
		wait:     wait,
		logger:   logger,
	}
}

// sleepWait pauses for d or until the context is done.
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

// Run drives one account through the full state machine and returns the
// located artifact. A failure is final for this run; the caller decides
// whether a later pipeline invocation retries the account.
func (o *Orchestrator) Run(ctx context.Context, loginID, password, server string) (*Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrSessionInProgress
	}
	defer o.running.Store(false)

	result := &Result{LoginID: loginID, StartedAt: o.clock()}
	state := StateIdle

	advance := func(to State) {
		result.Transitions = append(result.Transitions, Transition{From: state, To: to, At: o.clock()})
		state = to
	}
	fail := func(kind domain.FailureKind, err error) (*Result, error) {
		failedIn := state
		advance(StateFailed)
		result.Duration = o.clock().Sub(result.StartedAt)
		o.stopQuietly(loginID)
		return result, &Error{Kind: kind, State: failedIn, Err: err}
	}

	// Launching. Any instance left over from a previous session must be gone
	// before a new one starts; the terminal cannot host two.
	advance(StateLaunching)
	o.logger.Printf("session %s: launching terminal", loginID)
	if err := o.runPhase(ctx, o.timeouts.Launch, o.driver.Stop); err != nil {
		return fail(domain.FailureLaunch, fmt.Errorf("stop previous instance: %w", err))
	}
	if err := o.runPhase(ctx, o.timeouts.Launch, o.driver.Launch); err != nil {
		return fail(domain.FailureLaunch, err)
	}

	// Authenticating.
	advance(StateAuthenticating)
	o.logger.Printf("session %s: authenticating", loginID)
	if err := o.runPhase(ctx, o.timeouts.Auth, func(ctx context.Context) error {
		return o.driver.Authenticate(ctx, loginID, password, server)
	}); err != nil {
		return fail(domain.FailureAuth, err)
	}

	// RequestingReport.
	advance(StateRequestingReport)
	o.logger.Printf("session %s: requesting report", loginID)
	if err := o.runPhase(ctx, o.timeouts.ReportRequest, o.driver.RequestReport); err != nil {
		return fail(domain.FailureReportTimeout, err)
	}

	// AwaitingArtifact: probe until the export shows up or the deadline
	// passes. Every probe is one bounded step, never an open-ended block.
	advance(StateAwaitingArtifact)
	o.logger.Printf("session %s: awaiting report artifact", loginID)
	deadline := o.clock().Add(o.timeouts.Artifact)
	for {
		path, err := o.driver.LocateArtifact(ctx, loginID)
		if err == nil {
			advance(StateCompleted)
			result.ArtifactPath = path
			result.Duration = o.clock().Sub(result.StartedAt)
			o.stopQuietly(loginID)
			o.logger.Printf("session %s: completed, artifact %s", loginID, path)
			return result, nil
		}
		if !errors.Is(err, terminal.ErrArtifactNotReady) {
			return fail(domain.FailureReportTimeout, err)
		}
		if !o.clock().Before(deadline) {
			return fail(domain.FailureReportTimeout,
				fmt.Errorf("artifact did not appear within %s", o.timeouts.Artifact))
		}
		if err := o.wait(ctx, o.timeouts.PollInterval); err != nil {
			return fail(domain.FailureReportTimeout, err)
		}
	}
}

// runPhase executes one driver call under its state timeout.
func (o *Orchestrator) runPhase(ctx context.Context, timeout time.Duration, phase func(context.Context) error) error {
	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return phase(phaseCtx)
}

// stopQuietly tears the terminal down after a resolved session so the next
// launch starts clean. Best effort; a straggling process surfaces on the
// next session's pre-launch stop instead.
func (o *Orchestrator) stopQuietly(loginID string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeouts.Launch)
	defer cancel()
	if err := o.driver.Stop(ctx); err != nil {
		o.logger.Printf("session %s: stop terminal: %v", loginID, err)
	}
}
