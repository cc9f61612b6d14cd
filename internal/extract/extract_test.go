package extract

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wellFormed = `<!DOCTYPE html>
<html><head><title>Trade Report</title></head>
<body>
<script>
window.__report = {"account": 510001, "name": "Demo Trader", "summary": {"balance": 100000, "equity": 100250.5}};
</script>
<script>var other = {"account": 999};</script>
</body></html>`

func TestExtractWellFormed(t *testing.T) {
	payload, err := Extract(strings.NewReader(wellFormed))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if payload["name"] != "Demo Trader" {
		t.Errorf("name = %v", payload["name"])
	}
	// Non-greedy match must stop at the first payload, not swallow the
	// second script block.
	if _, ok := payload["other"]; ok {
		t.Error("match leaked into the following script block")
	}

	account, ok := payload["account"].(json.Number)
	if !ok {
		t.Fatalf("account should decode as json.Number, got %T", payload["account"])
	}
	if n, _ := account.Int64(); n != 510001 {
		t.Errorf("account = %v", n)
	}

	summary, ok := payload["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary should decode as a map, got %T", payload["summary"])
	}
	if eq, _ := summary["equity"].(json.Number).Float64(); eq != 100250.5 {
		t.Errorf("equity = %v", eq)
	}
}

func TestExtractScriptTagTerminator(t *testing.T) {
	html := `<script>window.__report = {"account": 510001}</script>`
	payload, err := Extract(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if payload["account"].(json.Number).String() != "510001" {
		t.Errorf("account = %v", payload["account"])
	}
}

func TestExtractFallbackWithoutTerminator(t *testing.T) {
	// Truncated export: assignment present, no semicolon, no closing tag.
	html := `<script>window.__report = {"account": 510001, "summary": {"balance": 100000}}`
	payload, err := Extract(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if payload["account"].(json.Number).String() != "510001" {
		t.Errorf("account = %v", payload["account"])
	}
}

func TestExtractIgnoresTrailingScript(t *testing.T) {
	html := `<script>window.__report = {"account": 510001};
	console.log("done");</script>`
	payload, err := Extract(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if payload["account"].(json.Number).String() != "510001" {
		t.Errorf("account = %v", payload["account"])
	}
}

func TestExtractMissingMarker(t *testing.T) {
	_, err := Extract(strings.NewReader(`<html><body>no report here</body></html>`))
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
}

func TestExtractUndecodablePayload(t *testing.T) {
	html := `<script>window.__report = {"account": };</script>`
	_, err := Extract(strings.NewReader(html))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ErrReportNotFound) {
		t.Errorf("decode failure must not read as missing marker: %v", err)
	}
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ReportTrader-510001.html")
	if err := os.WriteFile(path, []byte(wellFormed), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	payload, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if payload["name"] != "Demo Trader" {
		t.Errorf("name = %v", payload["name"])
	}

	_, err = ExtractFile(filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
