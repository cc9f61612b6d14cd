// Command session drives a single terminal session for one login and parses
// the exported report. Used to verify terminal wiring and credentials
// without touching the document store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/19arnab190201/guimt5-automation/internal/config"
	"github.com/19arnab190201/guimt5-automation/internal/extract"
	"github.com/19arnab190201/guimt5-automation/internal/normalize"
	"github.com/19arnab190201/guimt5-automation/internal/session"
	"github.com/19arnab190201/guimt5-automation/internal/terminal"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	login := flag.String("login", "", "Terminal login id")
	password := flag.String("password", "", "Terminal password")
	server := flag.String("server", "", "Terminal server (defaults to terminal.server from config)")
	asJSON := flag.Bool("json", false, "Dump the normalized document as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[session] ", log.LstdFlags|log.Lshortfile)

	if *login == "" || *password == "" {
		logger.Fatal("--login and --password are required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals; a cancelled context fails the running phase
	// and the orchestrator stops the terminal on its way out.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, aborting session...", sig)
		cancel()
	}()

	if err := run(ctx, logger, *configPath, *login, *password, *server, *asJSON); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, configPath, login, password, server string, asJSON bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTerminal(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	durations, err := cfg.ParseDurations()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if server == "" {
		server = cfg.Terminal.Server
	}

	// Create terminal driver
	automator, err := terminal.NewScriptAutomator(cfg.Terminal.LoginScript, cfg.Terminal.ReportScript)
	if err != nil {
		return fmt.Errorf("terminal automator: %w", err)
	}
	driver, err := terminal.NewLocalDriver(terminal.LocalDriverOptions{
		TerminalPath: cfg.Terminal.Path,
		ReportDir:    cfg.Terminal.ReportDir,
		Automator:    automator,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("terminal driver: %w", err)
	}

	sessions := session.New(session.Options{
		Driver: driver,
		Timeouts: session.Timeouts{
			Launch:        durations.Launch,
			Auth:          durations.Auth,
			ReportRequest: durations.ReportRequest,
			Artifact:      durations.Artifact,
			PollInterval:  durations.PollInterval,
		},
		Logger: logger,
	})

	logger.Printf("Running session for %s against %s", login, server)
	res, err := sessions.Run(ctx, login, password, server)
	if res != nil {
		for _, t := range res.Transitions {
			logger.Printf("  %s -> %s", t.From, t.To)
		}
	}
	if err != nil {
		return err
	}
	logger.Printf("Session completed in %s, artifact at %s", res.Duration, res.ArtifactPath)

	raw, err := extract.ExtractFile(res.ArtifactPath)
	if err != nil {
		return fmt.Errorf("extract %s: %w", res.ArtifactPath, err)
	}
	doc, err := normalize.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	if asJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	sections := doc.PopulatedSections()
	fmt.Printf("Account:  %d - %s\n", doc.Account, doc.Name)
	fmt.Printf("Broker:   %s\n", doc.Broker)
	fmt.Printf("Type:     %s\n", doc.Type)
	fmt.Printf("Currency: %s\n", doc.Currency)
	fmt.Printf("Digits:   %d\n", doc.Digits)
	fmt.Printf("Sections: %d populated (%s)\n", len(sections), strings.Join(sections, ", "))
	return nil
}
