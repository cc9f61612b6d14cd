package stub

import (
	"context"
	"sync"

	"github.com/19arnab190201/guimt5-automation/internal/terminal"
)

// Driver is a scriptable in-memory terminal driver for testing.
// Implements terminal.Driver.
type Driver struct {
	// Per-phase errors. Nil means the phase succeeds.
	LaunchErr  error
	StopErr    error
	AuthErr    error
	RequestErr error
	LocateErr  error

	// ArtifactPath is returned by LocateArtifact once it becomes available.
	ArtifactPath string
	// ArtifactAfterPolls is how many LocateArtifact calls return
	// ErrArtifactNotReady before the artifact appears. Negative means the
	// artifact never appears.
	ArtifactAfterPolls int

	mu           sync.Mutex
	launches     int
	stops        int
	authCalls    int
	requestCalls int
	locateCalls  int
	lastLogin    string
	lastPassword string
	lastServer   string
}

// NewDriver creates a stub driver whose artifact is immediately available.
func NewDriver(artifactPath string) *Driver {
	return &Driver{ArtifactPath: artifactPath}
}

// Launch records the call and returns LaunchErr.
func (d *Driver) Launch(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launches++
	return d.LaunchErr
}

// Stop records the call and returns StopErr.
func (d *Driver) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return d.StopErr
}

// Authenticate records the credentials and returns AuthErr.
func (d *Driver) Authenticate(_ context.Context, loginID, password, server string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.authCalls++
	d.lastLogin = loginID
	d.lastPassword = password
	d.lastServer = server
	return d.AuthErr
}

// RequestReport records the call and returns RequestErr.
func (d *Driver) RequestReport(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requestCalls++
	return d.RequestErr
}

// LocateArtifact returns ErrArtifactNotReady until the configured number of
// polls has passed, then the artifact path.
func (d *Driver) LocateArtifact(_ context.Context, _ string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locateCalls++
	if d.LocateErr != nil {
		return "", d.LocateErr
	}
	if d.ArtifactAfterPolls < 0 {
		return "", terminal.ErrArtifactNotReady
	}
	if d.locateCalls <= d.ArtifactAfterPolls {
		return "", terminal.ErrArtifactNotReady
	}
	return d.ArtifactPath, nil
}

// Launches returns how many times Launch was called.
func (d *Driver) Launches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.launches
}

// Stops returns how many times Stop was called.
func (d *Driver) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

// AuthCalls returns how many times Authenticate was called.
func (d *Driver) AuthCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authCalls
}

// RequestCalls returns how many times RequestReport was called.
func (d *Driver) RequestCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requestCalls
}

// LocateCalls returns how many times LocateArtifact was called.
func (d *Driver) LocateCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locateCalls
}

// LastCredentials returns the credentials from the most recent Authenticate.
func (d *Driver) LastCredentials() (loginID, password, server string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastLogin, d.lastPassword, d.lastServer
}

// Verify interface compliance at compile time.
var _ terminal.Driver = (*Driver)(nil)
