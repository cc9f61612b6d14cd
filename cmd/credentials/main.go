// Command credentials shows the credential collection the way the pipeline
// sees it: which logins qualify for processing, which are breached or
// inactive, and what the next run would pick up.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/config"
	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/pipeline"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
	"github.com/19arnab190201/guimt5-automation/internal/storage/memory"
	mongostore "github.com/19arnab190201/guimt5-automation/internal/storage/mongo"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	eligibleOnly := flag.Bool("eligible-only", false, "Show only eligible entries")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of MongoDB")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[credentials] ", log.LstdFlags|log.Lshortfile)

	if err := run(logger, *configPath, *eligibleOnly, *useMemory); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(logger *log.Logger, configPath string, eligibleOnly, useMemory bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store storage.CredentialStore = memory.NewCredentialStore()
	if !useMemory {
		if err := cfg.ValidateMongo(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		client, err := mongostore.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			return fmt.Errorf("connect to mongodb: %w", err)
		}
		defer client.Close(context.Background())
		store = mongostore.NewCredentialStore(client, cfg.MongoDB.CredentialsCollection)
	}

	groups, err := store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list credential groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Println("No credential groups found")
		return nil
	}

	if eligibleOnly {
		printEligible(groups)
		return nil
	}
	printBreakdown(groups, cfg.Terminal.Server)
	return nil
}

// printEligible lists just the entries a run would consider, flat.
func printEligible(groups []domain.CredentialGroup) {
	n := 0
	for _, g := range groups {
		for _, e := range g.EligibleEntries() {
			n++
			fmt.Printf("%d. %s/%s", n, g.Key, e.LoginID)
			if e.AssignedTo != "" {
				fmt.Printf("  assigned to %s", e.AssignedTo)
			}
			fmt.Println()
		}
	}
	if n == 0 {
		fmt.Println("No eligible credentials found")
		return
	}
	fmt.Printf("\n%d eligible credential(s)\n", n)
}

// printBreakdown shows every group in full, then the selection preview the
// next pipeline run would act on.
func printBreakdown(groups []domain.CredentialGroup, server string) {
	var totalEligible, totalBreached, totalInactive, total int

	for _, g := range groups {
		var eligible, breached, inactive []domain.CredentialEntry
		for _, e := range g.Credentials {
			switch {
			case e.Eligible():
				eligible = append(eligible, e)
			case e.IsBreached != nil && *e.IsBreached:
				breached = append(breached, e)
			default:
				inactive = append(inactive, e)
			}
		}
		total += len(g.Credentials)
		totalEligible += len(eligible)
		totalBreached += len(breached)
		totalInactive += len(inactive)

		fmt.Printf("Group %s: %d credential(s)\n", g.Key, len(g.Credentials))

		fmt.Printf("  Eligible (%d):\n", len(eligible))
		for _, e := range eligible {
			fmt.Printf("    %s  password %s%s%s\n",
				e.LoginID, strings.Repeat("*", len(e.Password)),
				assignment(e), lastChecked(e))
		}
		if len(breached) > 0 {
			fmt.Printf("  Breached (%d), will not be processed:\n", len(breached))
			for _, e := range breached {
				reason := e.BreachedMetadata
				if reason == "" {
					reason = "no metadata"
				}
				fmt.Printf("    %s  %s\n", e.LoginID, reason)
			}
		}
		if len(inactive) > 0 {
			fmt.Printf("  Inactive (%d):\n", len(inactive))
			for _, e := range inactive {
				fmt.Printf("    %s%s\n", e.LoginID, assignment(e))
			}
		}
		fmt.Println()
	}

	fmt.Printf("Totals: %d eligible, %d breached, %d inactive (%d credential(s) in %d group(s))\n\n",
		totalEligible, totalBreached, totalInactive, total, len(groups))

	candidates, selectionErrs := pipeline.Select(groups, server)
	fmt.Printf("Next run would process %d login(s) against %s:\n", len(candidates), server)
	for i, c := range candidates {
		fmt.Printf("  %d. %s/%s\n", i+1, c.GroupKey, c.Entry.LoginID)
	}
	for _, serr := range selectionErrs {
		fmt.Printf("  skipped: %s\n", serr.Error())
	}
}

func assignment(e domain.CredentialEntry) string {
	if e.AssignedTo == "" {
		return ""
	}
	if e.AssignedOrderID != "" {
		return fmt.Sprintf("  assigned to %s (order %s)", e.AssignedTo, e.AssignedOrderID)
	}
	return fmt.Sprintf("  assigned to %s", e.AssignedTo)
}

func lastChecked(e domain.CredentialEntry) string {
	if e.LastChecked == nil {
		return ""
	}
	return "  last checked " + e.LastChecked.Format(time.RFC3339)
}
