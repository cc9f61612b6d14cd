// Package normalize converts the raw payload extracted from a terminal
// report into the canonical document stored per account. Identity fields are
// validated strictly; metric sections pass through with numeric leaves
// coerced to float64 so the stored shape is stable across terminal builds.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
)

// Defaults applied when the terminal omits optional identity fields.
const (
	defaultType     = "demo"
	defaultCurrency = "USD"
	defaultDigits   = 2
)

// ParseError reports a raw report that cannot be normalized. Field names the
// offending location using dot notation, e.g. "account.account" or
// "balance.equity".
type ParseError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse report: %s: %s", e.Field, e.Reason)
}

func parseErrorf(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Normalize validates the raw payload and builds the canonical document.
// The account block must carry a usable account number; without it there is
// no key to upsert under, so the report is rejected outright.
func Normalize(raw map[string]any) (*domain.ReportDocument, error) {
	if raw == nil {
		return nil, parseErrorf("report", "empty payload")
	}

	// Identity header. The original payload nests it under "account"; a flat
	// payload with top-level identity fields is accepted too.
	identity, ok := asMap(raw["account"])
	if !ok {
		identity = raw
	}

	account, err := coerceInt64(identity["account"])
	if err != nil || account == 0 {
		return nil, parseErrorf("account.account", "missing or non-numeric account number")
	}

	name, err := requireString(identity, "name")
	if err != nil {
		return nil, err
	}
	broker, err := requireString(identity, "broker")
	if err != nil {
		return nil, err
	}
	currency := optionalString(identity, "currency", defaultCurrency)
	accType := optionalString(identity, "type", defaultType)

	digits := defaultDigits
	if v, present := identity["digits"]; present {
		n, err := coerceInt64(v)
		if err != nil {
			return nil, parseErrorf("account.digits", "non-numeric value %v", v)
		}
		digits = int(n)
	}

	doc := &domain.ReportDocument{
		Account:  account,
		Name:     name,
		Currency: currency,
		Type:     accType,
		Broker:   broker,
		Digits:   digits,
	}

	// Metric sections. Unknown top-level keys are ignored; known sections are
	// deep-copied with numeric leaves coerced.
	for _, s := range []struct {
		name string
		dst  *map[string]any
	}{
		{"summary", &doc.Summary},
		{"summaryIndicators", &doc.SummaryIndicators},
		{"balance", &doc.Balance},
		{"growth", &doc.Growth},
		{"dividend", &doc.Dividend},
		{"profitTotal", &doc.ProfitTotal},
		{"profitMoney", &doc.ProfitMoney},
		{"profitDeals", &doc.ProfitDeals},
		{"profitDaily", &doc.ProfitDaily},
		{"profitType", &doc.ProfitType},
		{"longShortTotal", &doc.LongShortTotal},
		{"longShort", &doc.LongShort},
		{"longShortDaily", &doc.LongShortDaily},
		{"longShortIndicators", &doc.LongShortIndicators},
		{"tradeTypeTotal", &doc.TradeTypeTotal},
		{"symbolMoney", &doc.SymbolMoney},
		{"symbolDeals", &doc.SymbolDeals},
		{"symbolIndicators", &doc.SymbolIndicators},
		{"symbolsTotal", &doc.SymbolsTotal},
		{"symbolTypes", &doc.SymbolTypes},
		{"drawdown", &doc.Drawdown},
		{"risksIndicators", &doc.RisksIndicators},
		{"risksMfeMaePercent", &doc.RisksMfeMaePercent},
		{"risksMfeMaeMoney", &doc.RisksMfeMaeMoney},
	} {
		v, present := raw[s.name]
		if !present || v == nil {
			continue
		}
		m, ok := asMap(v)
		if !ok {
			return nil, parseErrorf(s.name, "section is not an object")
		}
		copied, err := coerceSection(s.name, m)
		if err != nil {
			return nil, err
		}
		*s.dst = copied
	}

	return doc, nil
}

// coerceSection deep-copies a metric section, converting every numeric leaf
// to float64.
func coerceSection(path string, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		cv, err := coerceValue(path+"."+k, v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

func coerceValue(path string, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, parseErrorf(path, "non-coercible number %q", val.String())
		}
		return f, nil
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case bool, string:
		return val, nil
	case map[string]any:
		return coerceSection(path, val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			cv, err := coerceValue(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	default:
		return nil, parseErrorf(path, "unsupported value type %T", v)
	}
}

// coerceInt64 converts the numeric representations the extractor may hand
// over for integer fields.
func coerceInt64(v any) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", val.String())
		}
		return int64(f), nil
	case float64:
		return int64(val), nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

func requireString(m map[string]any, key string) (string, error) {
	v, present := m[key]
	if !present || v == nil {
		return "", parseErrorf("account."+key, "missing required field")
	}
	s, ok := v.(string)
	if !ok {
		return "", parseErrorf("account."+key, "expected string, got %T", v)
	}
	if s == "" {
		return "", parseErrorf("account."+key, "missing required field")
	}
	return s, nil
}

func optionalString(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
