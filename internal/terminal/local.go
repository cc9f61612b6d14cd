package terminal

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// defaultSettleDelay is how long a freshly started terminal process must stay
// alive before Launch reports success.
const defaultSettleDelay = 2 * time.Second

// LocalDriverOptions configures a LocalDriver.
type LocalDriverOptions struct {
	// TerminalPath is the terminal executable. Must exist.
	TerminalPath string
	// ReportDir is where the terminal saves exported reports.
	ReportDir string
	// Automator drives the login and report dialogs. Authenticate and
	// RequestReport fail with ErrAutomatorRequired when nil.
	Automator Automator
	// SettleDelay overrides how long Launch watches the new process.
	SettleDelay time.Duration
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// LocalDriver runs the terminal as a local child process and finds exported
// reports on the filesystem. Only instances started by this driver are
// tracked; Stop cannot reach terminals started elsewhere.
type LocalDriver struct {
	terminalPath string
	reportDir    string
	automator    Automator
	settleDelay  time.Duration
	logger       *log.Logger
	clock        func() time.Time

	mu         sync.Mutex
	cmd        *exec.Cmd
	waitCh     chan error
	launchedAt time.Time
}

// NewLocalDriver validates the terminal installation and creates a driver.
// A missing executable or report directory is a configuration fault.
func NewLocalDriver(opts LocalDriverOptions) (*LocalDriver, error) {
	if opts.TerminalPath == "" {
		return nil, fmt.Errorf("terminal path is required")
	}
	if _, err := os.Stat(opts.TerminalPath); err != nil {
		return nil, fmt.Errorf("terminal executable: %w", err)
	}
	if opts.ReportDir == "" {
		return nil, fmt.Errorf("report directory is required")
	}
	if info, err := os.Stat(opts.ReportDir); err != nil {
		return nil, fmt.Errorf("report directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("report directory %s is not a directory", opts.ReportDir)
	}

	settle := opts.SettleDelay
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &LocalDriver{
		terminalPath: opts.TerminalPath,
		reportDir:    opts.ReportDir,
		automator:    opts.Automator,
		settleDelay:  settle,
		logger:       logger,
		clock:        time.Now,
	}, nil
}

// WithClock overrides the time source. Used by tests.
func (d *LocalDriver) WithClock(clock func() time.Time) *LocalDriver {
	d.clock = clock
	return d
}

// Launch starts the terminal and waits for it to settle. A process that
// exits within the settle window is reported as a failed launch.
func (d *LocalDriver) Launch(ctx context.Context) error {
	d.mu.Lock()
	if d.cmd != nil {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}

	cmd := exec.Command(d.terminalPath)
	if err := cmd.Start(); err != nil {
		d.mu.Unlock()
		return fmt.Errorf("start terminal: %w", err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	d.cmd = cmd
	d.waitCh = waitCh
	d.launchedAt = d.clock()
	d.mu.Unlock()

	d.logger.Printf("terminal started (pid %d)", cmd.Process.Pid)

	settle := time.NewTimer(d.settleDelay)
	defer settle.Stop()

	select {
	case <-ctx.Done():
		d.reset()
		return ctx.Err()
	case err := <-waitCh:
		d.clear()
		return fmt.Errorf("terminal exited during startup: %w", err)
	case <-settle.C:
		return nil
	}
}

// Stop terminates the tracked terminal process and waits for it to exit.
func (d *LocalDriver) Stop(ctx context.Context) error {
	d.mu.Lock()
	cmd := d.cmd
	waitCh := d.waitCh
	d.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if err := cmd.Process.Kill(); err != nil && !strings.Contains(err.Error(), "already finished") {
		d.clear()
		return fmt.Errorf("kill terminal: %w", err)
	}

	select {
	case <-waitCh:
	case <-ctx.Done():
		d.clear()
		return ctx.Err()
	}
	d.clear()
	return nil
}

// Authenticate drives the login dialog through the automator.
func (d *LocalDriver) Authenticate(ctx context.Context, loginID, password, server string) error {
	if d.automator == nil {
		return ErrAutomatorRequired
	}
	if err := d.automator.EnterCredentials(ctx, loginID, password, server); err != nil {
		return fmt.Errorf("authenticate %s: %w", loginID, err)
	}
	return nil
}

// RequestReport drives the report export dialog through the automator.
func (d *LocalDriver) RequestReport(ctx context.Context) error {
	if d.automator == nil {
		return ErrAutomatorRequired
	}
	if err := d.automator.TriggerReportExport(ctx); err != nil {
		return fmt.Errorf("request report: %w", err)
	}
	return nil
}

// LocateArtifact probes the report directory for the newest HTML export that
// names the login and postdates the current launch. Exports left over from
// earlier sessions are ignored.
func (d *LocalDriver) LocateArtifact(_ context.Context, loginID string) (string, error) {
	d.mu.Lock()
	launchedAt := d.launchedAt
	d.mu.Unlock()

	entries, err := os.ReadDir(d.reportDir)
	if err != nil {
		return "", fmt.Errorf("read report dir: %w", err)
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".html") {
			continue
		}
		if loginID != "" && !strings.Contains(name, loginID) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(launchedAt) {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = filepath.Join(d.reportDir, name)
			newestMod = info.ModTime()
		}
	}

	if newest == "" {
		return "", ErrArtifactNotReady
	}
	return newest, nil
}

// reset kills the tracked process without waiting.
func (d *LocalDriver) reset() {
	d.mu.Lock()
	cmd := d.cmd
	d.cmd = nil
	d.waitCh = nil
	d.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// clear drops the tracked process reference.
func (d *LocalDriver) clear() {
	d.mu.Lock()
	d.cmd = nil
	d.waitCh = nil
	d.mu.Unlock()
}

// Verify interface compliance at compile time.
var _ Driver = (*LocalDriver)(nil)
