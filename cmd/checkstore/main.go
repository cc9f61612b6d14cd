// Command checkstore verifies document store connectivity: connect, ping,
// and report what the configured collections currently hold.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/19arnab190201/guimt5-automation/internal/config"
	mongostore "github.com/19arnab190201/guimt5-automation/internal/storage/mongo"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	timeout := flag.Duration("timeout", 10*time.Second, "Overall check timeout")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[checkstore] ", log.LstdFlags|log.Lshortfile)

	if err := run(logger, *configPath, *timeout); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(logger *log.Logger, configPath string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateMongo(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongostore.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer client.Close(context.Background())

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	logger.Printf("Connected to database %q", cfg.MongoDB.Database)

	names, err := client.Database().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	logger.Printf("Collections: %v", names)

	for _, name := range []string{cfg.MongoDB.CredentialsCollection, cfg.MongoDB.ReportsCollection} {
		n, err := client.Collection(name).CountDocuments(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		logger.Printf("%s: %d document(s)", name, n)
	}

	logger.Println("Store check passed")
	return nil
}
