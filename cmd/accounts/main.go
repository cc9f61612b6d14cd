// Command accounts inspects stored reports: list them, show one in detail,
// or rank the top performers by reported gain.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/config"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
	"github.com/19arnab190201/guimt5-automation/internal/storage/memory"
	mongostore "github.com/19arnab190201/guimt5-automation/internal/storage/mongo"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "[accounts] ", log.LstdFlags|log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "Path to YAML config file")
		useMemory := fs.Bool("use-memory", false, "Use in-memory storage instead of MongoDB")
		fs.Parse(os.Args[2:])
		err = withStore(*configPath, *useMemory, runList)
	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "Path to YAML config file")
		useMemory := fs.Bool("use-memory", false, "Use in-memory storage instead of MongoDB")
		account := fs.Int64("account", 0, "Account number to show")
		asJSON := fs.Bool("json", false, "Dump the stored document as JSON")
		fs.Parse(os.Args[2:])
		if *account == 0 {
			logger.Fatal("show: --account is required")
		}
		err = withStore(*configPath, *useMemory, func(ctx context.Context, store storage.ReportStore) error {
			return runShow(ctx, store, *account, *asJSON)
		})
	case "top":
		fs := flag.NewFlagSet("top", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "Path to YAML config file")
		useMemory := fs.Bool("use-memory", false, "Use in-memory storage instead of MongoDB")
		limit := fs.Int("limit", 5, "How many accounts to show")
		fs.Parse(os.Args[2:])
		err = withStore(*configPath, *useMemory, func(ctx context.Context, store storage.ReportStore) error {
			return runTop(ctx, store, *limit)
		})
	default:
		usage()
	}

	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: accounts <list|show|top> [flags]")
	fmt.Fprintln(os.Stderr, "  list               List all stored accounts")
	fmt.Fprintln(os.Stderr, "  show --account N   Show one account in detail (--json for the full document)")
	fmt.Fprintln(os.Stderr, "  top [--limit N]    Rank accounts by reported gain")
	os.Exit(2)
}

// withStore builds the report store from config and runs fn against it.
func withStore(configPath string, useMemory bool, fn func(context.Context, storage.ReportStore) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store storage.ReportStore = memory.NewReportStore()
	if !useMemory {
		if err := cfg.ValidateMongo(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		client, err := mongostore.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
		if err != nil {
			return fmt.Errorf("connect to mongodb: %w", err)
		}
		defer client.Close(context.Background())
		store = mongostore.NewReportStore(client, cfg.MongoDB.ReportsCollection)
	}

	return fn(ctx, store)
}

func runList(ctx context.Context, store storage.ReportStore) error {
	docs, err := store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No accounts stored")
		return nil
	}

	fmt.Printf("Found %d account(s)\n\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("%d. Account %d - %s\n", i+1, doc.Account, doc.Name)
		fmt.Printf("   Balance: %.2f %s\n", numeric(doc.Balance, "balance"), doc.Currency)
		fmt.Printf("   Gain:    %.2f%%\n", numeric(doc.Summary, "gain"))
		if doc.Status != "" {
			fmt.Printf("   Status:  %s\n", doc.Status)
		}
		fmt.Printf("   Broker:  %s\n\n", doc.Broker)
	}
	return nil
}

func runShow(ctx context.Context, store storage.ReportStore, account int64, asJSON bool) error {
	doc, err := store.GetByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no report stored for account %d", account)
		}
		return fmt.Errorf("get account %d: %w", account, err)
	}

	if asJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	long := numeric(doc.LongShortTotal, "long")
	short := numeric(doc.LongShortTotal, "short")

	fmt.Printf("Account:      %d - %s\n", doc.Account, doc.Name)
	fmt.Printf("Broker:       %s\n", doc.Broker)
	fmt.Printf("Type:         %s\n", doc.Type)
	fmt.Printf("Currency:     %s\n", doc.Currency)
	fmt.Printf("Balance:      %.2f\n", numeric(doc.Balance, "balance"))
	fmt.Printf("Equity:       %.2f\n", numeric(doc.Balance, "equity"))
	fmt.Printf("Gain:         %.2f%%\n", numeric(doc.Summary, "gain"))
	fmt.Printf("Deposits:     %.2f\n", firstOf(doc.Summary, "deposit"))
	fmt.Printf("Withdrawals:  %.2f\n", firstOf(doc.Summary, "withdrawal"))
	fmt.Printf("Trades:       %.0f long / %.0f short\n", long, short)
	if doc.Status != "" {
		fmt.Printf("Status:       %s\n", doc.Status)
	}
	if doc.IsBreached {
		fmt.Printf("Breached:     yes %v\n", doc.BreachReasons)
	}
	if !doc.UpdatedAt.IsZero() {
		fmt.Printf("Last Updated: %s\n", doc.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runTop(ctx context.Context, store storage.ReportStore, limit int) error {
	docs, err := store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No accounts stored")
		return nil
	}

	// Ties keep account-number order from the store.
	sort.SliceStable(docs, func(i, j int) bool {
		return numeric(docs[i].Summary, "gain") > numeric(docs[j].Summary, "gain")
	})
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}

	fmt.Printf("Top %d account(s) by gain\n\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("%d. Account %d - %s\n", i+1, doc.Account, doc.Name)
		fmt.Printf("   Gain:    %.2f%%\n", numeric(doc.Summary, "gain"))
		fmt.Printf("   Balance: %.2f %s\n", numeric(doc.Balance, "balance"), doc.Currency)
		fmt.Printf("   Broker:  %s\n\n", doc.Broker)
	}
	return nil
}

// numeric returns the float64 leaf at key. Normalized sections coerce all
// numbers to float64, so a missing or non-numeric leaf reads as zero.
func numeric(section map[string]any, key string) float64 {
	v, _ := section[key].(float64)
	return v
}

// firstOf returns the amount from an [amount, count] pair leaf.
func firstOf(section map[string]any, key string) float64 {
	pair, _ := section[key].([]any)
	if len(pair) == 0 {
		return 0
	}
	v, _ := pair[0].(float64)
	return v
}
