// Command pipeline runs one full pass over the credential collection:
// select eligible logins, drive a terminal session per account, parse the
// exported report, evaluate program rules and store the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/config"
	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/observability"
	"github.com/19arnab190201/guimt5-automation/internal/persist"
	"github.com/19arnab190201/guimt5-automation/internal/pipeline"
	"github.com/19arnab190201/guimt5-automation/internal/session"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
	"github.com/19arnab190201/guimt5-automation/internal/storage/memory"
	mongostore "github.com/19arnab190201/guimt5-automation/internal/storage/mongo"
	"github.com/19arnab190201/guimt5-automation/internal/terminal"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of MongoDB")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", false, "Log every session state transition")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags|log.Lshortfile)

	metrics := observability.NewMetrics("")

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout. A first signal lets the
	// run finish the account in flight; the pipeline stops before the next one.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, finishing current account before stopping...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(2 * time.Minute):
			logger.Println("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	summary, err := run(ctx, logger, metrics, *configPath, *useMemory, *verbose)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	if summary != nil {
		fmt.Print(summary.Format())

		// A run where every processed account failed means the terminal or
		// the credentials are broken, not the accounts. Surface that to cron.
		failed := summary.ByStatus(domain.OutcomeFailed)
		if len(summary.Outcomes) > 0 && len(failed) == len(summary.Outcomes) {
			logger.Printf("All %d processed accounts failed", len(failed))
			os.Exit(1)
		}
	}

	logger.Println("Run complete")
}

// run wires the pipeline from config and processes every selected account.
func run(ctx context.Context, logger *log.Logger, metrics *observability.Metrics, configPath string, useMemory, verbose bool) (*domain.RunSummary, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.ValidateTerminal(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	durations, err := cfg.ParseDurations()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Create stores (use interfaces)
	var credentials storage.CredentialStore = memory.NewCredentialStore()
	var reports storage.ReportStore = memory.NewReportStore()

	if !useMemory {
		if err := cfg.ValidateMongo(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		client, err := mongostore.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		defer client.Close(context.Background())

		reportStore := mongostore.NewReportStore(client, cfg.MongoDB.ReportsCollection)
		if err := reportStore.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure report indexes: %w", err)
		}
		credentials = mongostore.NewCredentialStore(client, cfg.MongoDB.CredentialsCollection)
		reports = reportStore
	}

	// Create terminal driver
	automator, err := terminal.NewScriptAutomator(cfg.Terminal.LoginScript, cfg.Terminal.ReportScript)
	if err != nil {
		return nil, fmt.Errorf("terminal automator: %w", err)
	}
	driver, err := terminal.NewLocalDriver(terminal.LocalDriverOptions{
		TerminalPath: cfg.Terminal.Path,
		ReportDir:    cfg.Terminal.ReportDir,
		Automator:    automator,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("terminal driver: %w", err)
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

	var localDir string
	if cfg.LocalSaveEnabled() {
		localDir = cfg.Pipeline.LocalDir
	}
	coordinator := persist.New(persist.Options{
		Reports:     reports,
		Credentials: credentials,
		LocalDir:    localDir,
		Logger:      logger,
		Metrics:     metrics,
	})

	runner := pipeline.NewRunner(pipeline.Options{
		Credentials:       credentials,
		Sessions:          sessions,
		Coordinator:       coordinator,
		Server:            cfg.Terminal.Server,
		InterAccountDelay: durations.InterAccountDelay,
		Logger:            logger,
		Metrics:           metrics,
		Verbose:           verbose,
	})

	logger.Printf("Starting pipeline run against server %s", cfg.Terminal.Server)
	return runner.Run(ctx)
}
