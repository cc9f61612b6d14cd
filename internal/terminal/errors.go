package terminal

import "errors"

// Driver errors.
var (
	// ErrArtifactNotReady is returned by LocateArtifact while the exported
	// report file has not appeared yet. Callers poll until their deadline.
	ErrArtifactNotReady = errors.New("report artifact not ready")

	// ErrAutomatorRequired is returned when an input-driving operation is
	// invoked on a driver constructed without an Automator.
	ErrAutomatorRequired = errors.New("automator required")

	// ErrAlreadyRunning is returned by Launch when a terminal instance
	// started by this driver is still alive.
	ErrAlreadyRunning = errors.New("terminal already running")
)
