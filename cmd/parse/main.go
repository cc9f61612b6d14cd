// Command parse extracts and normalizes a saved report artifact without
// driving the terminal. Useful for inspecting exports the pipeline already
// collected or for debugging extraction on a new terminal build.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/19arnab190201/guimt5-automation/internal/extract"
	"github.com/19arnab190201/guimt5-automation/internal/normalize"
)

func main() {
	// Parse flags
	outPath := flag.String("out", "", "Write the normalized document to this JSON file")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[parse] ", log.LstdFlags|log.Lshortfile)

	if flag.NArg() != 1 {
		logger.Fatal("Usage: parse [--out file.json] <artifact.html>")
	}

	if err := run(logger, flag.Arg(0), *outPath); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(logger *log.Logger, artifactPath, outPath string) error {
	raw, err := extract.ExtractFile(artifactPath)
	if err != nil {
		return fmt.Errorf("extract %s: %w", artifactPath, err)
	}
	doc, err := normalize.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	sections := doc.PopulatedSections()
	fmt.Printf("Account:  %d - %s\n", doc.Account, doc.Name)
	fmt.Printf("Broker:   %s\n", doc.Broker)
	fmt.Printf("Type:     %s\n", doc.Type)
	fmt.Printf("Currency: %s\n", doc.Currency)
	fmt.Printf("Digits:   %d\n", doc.Digits)
	fmt.Printf("Sections: %d populated (%s)\n", len(sections), strings.Join(sections, ", "))

	if outPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	logger.Printf("Wrote normalized document to %s", outPath)
	return nil
}
