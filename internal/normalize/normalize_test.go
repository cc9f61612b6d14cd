package normalize

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// rawReport builds a minimal valid payload the way the extractor produces it:
// numbers as json.Number, identity nested under "account".
func rawReport() map[string]any {
	return map[string]any{
		"account": map[string]any{
			"account":  json.Number("510001"),
			"name":     "Jane Trader",
			"currency": "USD",
			"type":     "demo",
			"broker":   "Broker Ltd",
			"digits":   json.Number("2"),
		},
		"summary": map[string]any{
			"gain":    json.Number("12.5"),
			"deposit": []any{json.Number("100000"), json.Number("1")},
		},
		"balance": map[string]any{
			"balance": json.Number("108000.50"),
			"equity":  json.Number("107950"),
			"chart": []any{
				map[string]any{"x": json.Number("1715000000"), "y": []any{json.Number("100000"), json.Number("100000")}},
			},
		},
	}
}

func TestNormalizeValidReport(t *testing.T) {
	doc, err := Normalize(rawReport())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if doc.Account != 510001 {
		t.Errorf("Account = %d, want 510001", doc.Account)
	}
	if doc.Name != "Jane Trader" {
		t.Errorf("Name = %q", doc.Name)
	}
	if doc.Broker != "Broker Ltd" {
		t.Errorf("Broker = %q", doc.Broker)
	}
	if doc.Digits != 2 {
		t.Errorf("Digits = %d", doc.Digits)
	}

	// Numeric leaves become float64 at every depth.
	if got, ok := doc.Summary["gain"].(float64); !ok || got != 12.5 {
		t.Errorf("summary.gain = %v (%T)", doc.Summary["gain"], doc.Summary["gain"])
	}
	deposit, ok := doc.Summary["deposit"].([]any)
	if !ok || len(deposit) != 2 {
		t.Fatalf("summary.deposit = %v", doc.Summary["deposit"])
	}
	if got, ok := deposit[0].(float64); !ok || got != 100000 {
		t.Errorf("summary.deposit[0] = %v (%T)", deposit[0], deposit[0])
	}
	chart, ok := doc.Balance["chart"].([]any)
	if !ok || len(chart) != 1 {
		t.Fatalf("balance.chart = %v", doc.Balance["chart"])
	}
	point := chart[0].(map[string]any)
	if got, ok := point["x"].(float64); !ok || got != 1715000000 {
		t.Errorf("balance.chart[0].x = %v (%T)", point["x"], point["x"])
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := map[string]any{
		"account": map[string]any{
			"account": json.Number("510002"),
			"name":    "No Frills",
			"broker":  "Broker Ltd",
		},
	}

	doc, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if doc.Currency != "USD" {
		t.Errorf("Currency default = %q, want USD", doc.Currency)
	}
	if doc.Type != "demo" {
		t.Errorf("Type default = %q, want demo", doc.Type)
	}
	if doc.Digits != 2 {
		t.Errorf("Digits default = %d, want 2", doc.Digits)
	}
}

func TestNormalizeMissingAccountNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"no account block", map[string]any{"summary": map[string]any{}}},
		{"empty account block", map[string]any{"account": map[string]any{"name": "x", "broker": "y"}}},
		{"zero account", map[string]any{"account": map[string]any{"account": json.Number("0"), "name": "x", "broker": "y"}}},
		{"non-numeric account", map[string]any{"account": map[string]any{"account": "abc", "name": "x", "broker": "y"}}},
		{"nil payload", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestNormalizeMissingIdentityFields(t *testing.T) {
	raw := rawReport()
	delete(raw["account"].(map[string]any), "name")

	_, err := Normalize(raw)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Field != "account.name" {
		t.Errorf("Field = %q, want account.name", pe.Field)
	}

	raw = rawReport()
	raw["account"].(map[string]any)["broker"] = json.Number("42")
	_, err = Normalize(raw)
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError for typed broker, got %v", err)
	}
	if pe.Field != "account.broker" {
		t.Errorf("Field = %q, want account.broker", pe.Field)
	}
}

func TestNormalizeNonCoercibleLeaf(t *testing.T) {
	raw := rawReport()
	raw["balance"].(map[string]any)["equity"] = json.Number("not-a-number")

	_, err := Normalize(raw)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.HasPrefix(pe.Field, "balance.") {
		t.Errorf("Field = %q, want balance.* path", pe.Field)
	}
}

func TestNormalizeIgnoresUnknownSections(t *testing.T) {
	raw := rawReport()
	raw["experimental"] = map[string]any{"x": json.Number("1")}

	doc, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got := doc.PopulatedSections(); len(got) != 2 {
		t.Errorf("PopulatedSections = %v, want summary and balance only", got)
	}
}

func TestNormalizeFlatIdentity(t *testing.T) {
	// Some exports put identity fields at the top level instead of nesting
	// them under "account".
	raw := map[string]any{
		"account": json.Number("510003"),
		"name":    "Flat Identity",
		"broker":  "Broker Ltd",
	}

	doc, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if doc.Account != 510003 {
		t.Errorf("Account = %d, want 510003", doc.Account)
	}
	if doc.Name != "Flat Identity" {
		t.Errorf("Name = %q", doc.Name)
	}
}

func TestNormalizeSectionNotObject(t *testing.T) {
	raw := rawReport()
	raw["growth"] = "oops"

	_, err := Normalize(raw)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Field != "growth" {
		t.Errorf("Field = %q, want growth", pe.Field)
	}
}
