package terminal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ScriptAutomator implements Automator by running external automation
// scripts. The scripts own the actual keyboard and mouse synthesis; this
// type only invokes them and reports their exit status.
type ScriptAutomator struct {
	// LoginScript is executed to drive the login dialog. Credentials are
	// passed through the environment as MT5_LOGIN, MT5_PASSWORD and
	// MT5_SERVER rather than argv.
	LoginScript string
	// ReportScript is executed to drive the report export dialog.
	ReportScript string
}

// NewScriptAutomator validates the script paths and creates an automator.
func NewScriptAutomator(loginScript, reportScript string) (*ScriptAutomator, error) {
	if loginScript == "" {
		return nil, fmt.Errorf("login script is required")
	}
	if _, err := os.Stat(loginScript); err != nil {
		return nil, fmt.Errorf("login script: %w", err)
	}
	if reportScript == "" {
		return nil, fmt.Errorf("report script is required")
	}
	if _, err := os.Stat(reportScript); err != nil {
		return nil, fmt.Errorf("report script: %w", err)
	}
	return &ScriptAutomator{LoginScript: loginScript, ReportScript: reportScript}, nil
}

// EnterCredentials runs the login script with the credentials in its
// environment.
func (a *ScriptAutomator) EnterCredentials(ctx context.Context, loginID, password, server string) error {
	cmd := exec.CommandContext(ctx, a.LoginScript)
	cmd.Env = append(os.Environ(),
		"MT5_LOGIN="+loginID,
		"MT5_PASSWORD="+password,
		"MT5_SERVER="+server,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("login script: %w: %s", err, bytes.TrimSpace(out))
	}
	return nil
}

// TriggerReportExport runs the report script.
func (a *ScriptAutomator) TriggerReportExport(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, a.ReportScript)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("report script: %w: %s", err, bytes.TrimSpace(out))
	}
	return nil
}

// Verify interface compliance at compile time.
var _ Automator = (*ScriptAutomator)(nil)
