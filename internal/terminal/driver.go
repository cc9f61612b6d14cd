package terminal

import "context"

// Driver controls a single terminal instance through one report session.
// Implementations own process lifecycle and artifact discovery; the session
// orchestrator owns timeouts and polling.
type Driver interface {
	// Launch starts a fresh terminal instance. Fails if one is already
	// running under this driver.
	Launch(ctx context.Context) error

	// Stop terminates the running terminal instance, if any. Stopping an
	// idle driver is a no-op.
	Stop(ctx context.Context) error

	// Authenticate logs the terminal into the given account. A rejected
	// password and an unresponsive terminal are not distinguishable from
	// the outside; both surface as an error.
	Authenticate(ctx context.Context, loginID, password, server string) error

	// RequestReport instructs the terminal to export the performance report
	// for the authenticated account.
	RequestReport(ctx context.Context) error

	// LocateArtifact probes once for the exported report file and returns
	// its path. Returns ErrArtifactNotReady while the file has not appeared.
	LocateArtifact(ctx context.Context, loginID string) (string, error)
}

// Automator performs the on-screen input sequences the terminal offers no
// API for. Implementations synthesize keyboard and mouse input; this package
// only invokes them.
type Automator interface {
	// EnterCredentials drives the terminal login dialog.
	EnterCredentials(ctx context.Context, loginID, password, server string) error

	// TriggerReportExport drives the report save dialog.
	TriggerReportExport(ctx context.Context) error
}
