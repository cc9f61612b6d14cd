package domain

import "time"

// ReportDocument is one document in the credentials_reports collection: the
// normalized form of a terminal performance report for a single account.
// The account number is the unique key; re-running the pipeline replaces the
// metric sections in place.
//
// Section payloads are kept schemaless. The terminal emits dozens of metric
// groups whose leaves shift between builds, so each section is stored as a
// map with numeric leaves coerced to float64 rather than as a rigid struct.
type ReportDocument struct {
	Account  int64  `bson:"account" json:"account"` // unique index
	Name     string `bson:"name" json:"name"`
	Currency string `bson:"currency" json:"currency"`
	Type     string `bson:"type" json:"type"`
	Broker   string `bson:"broker" json:"broker"`
	Digits   int    `bson:"digits" json:"digits"`

	Summary             map[string]any `bson:"summary,omitempty" json:"summary,omitempty"`
	SummaryIndicators   map[string]any `bson:"summaryIndicators,omitempty" json:"summaryIndicators,omitempty"`
	Balance             map[string]any `bson:"balance,omitempty" json:"balance,omitempty"`
	Growth              map[string]any `bson:"growth,omitempty" json:"growth,omitempty"`
	Dividend            map[string]any `bson:"dividend,omitempty" json:"dividend,omitempty"`
	ProfitTotal         map[string]any `bson:"profitTotal,omitempty" json:"profitTotal,omitempty"`
	ProfitMoney         map[string]any `bson:"profitMoney,omitempty" json:"profitMoney,omitempty"`
	ProfitDeals         map[string]any `bson:"profitDeals,omitempty" json:"profitDeals,omitempty"`
	ProfitDaily         map[string]any `bson:"profitDaily,omitempty" json:"profitDaily,omitempty"`
	ProfitType          map[string]any `bson:"profitType,omitempty" json:"profitType,omitempty"`
	LongShortTotal      map[string]any `bson:"longShortTotal,omitempty" json:"longShortTotal,omitempty"`
	LongShort           map[string]any `bson:"longShort,omitempty" json:"longShort,omitempty"`
	LongShortDaily      map[string]any `bson:"longShortDaily,omitempty" json:"longShortDaily,omitempty"`
	LongShortIndicators map[string]any `bson:"longShortIndicators,omitempty" json:"longShortIndicators,omitempty"`
	TradeTypeTotal      map[string]any `bson:"tradeTypeTotal,omitempty" json:"tradeTypeTotal,omitempty"`
	SymbolMoney         map[string]any `bson:"symbolMoney,omitempty" json:"symbolMoney,omitempty"`
	SymbolDeals         map[string]any `bson:"symbolDeals,omitempty" json:"symbolDeals,omitempty"`
	SymbolIndicators    map[string]any `bson:"symbolIndicators,omitempty" json:"symbolIndicators,omitempty"`
	SymbolsTotal        map[string]any `bson:"symbolsTotal,omitempty" json:"symbolsTotal,omitempty"`
	SymbolTypes         map[string]any `bson:"symbolTypes,omitempty" json:"symbolTypes,omitempty"`
	Drawdown            map[string]any `bson:"drawdown,omitempty" json:"drawdown,omitempty"`
	RisksIndicators     map[string]any `bson:"risksIndicators,omitempty" json:"risksIndicators,omitempty"`
	RisksMfeMaePercent  map[string]any `bson:"risksMfeMaePercent,omitempty" json:"risksMfeMaePercent,omitempty"`
	RisksMfeMaeMoney    map[string]any `bson:"risksMfeMaeMoney,omitempty" json:"risksMfeMaeMoney,omitempty"`

	// Evaluation results, attached after rule checks run.
	CredentialKey string      `bson:"credentialKey,omitempty" json:"credentialKey,omitempty"`
	Status        string      `bson:"status,omitempty" json:"status,omitempty"`
	IsBreached    bool        `bson:"isBreached" json:"isBreached"`
	BreachReasons []string    `bson:"breachReasons,omitempty" json:"breachReasons,omitempty"`
	Evaluation    *Evaluation `bson:"evaluation,omitempty" json:"evaluation,omitempty"`

	// Stamped by the store on every upsert.
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// PopulatedSections lists the metric sections present on the document, in
// report order.
func (d *ReportDocument) PopulatedSections() []string {
	names := []string{}
	for _, s := range []struct {
		name string
		m    map[string]any
	}{
		{"summary", d.Summary},
		{"summaryIndicators", d.SummaryIndicators},
		{"balance", d.Balance},
		{"growth", d.Growth},
		{"dividend", d.Dividend},
		{"profitTotal", d.ProfitTotal},
		{"profitMoney", d.ProfitMoney},
		{"profitDeals", d.ProfitDeals},
		{"profitDaily", d.ProfitDaily},
		{"profitType", d.ProfitType},
		{"longShortTotal", d.LongShortTotal},
		{"longShort", d.LongShort},
		{"longShortDaily", d.LongShortDaily},
		{"longShortIndicators", d.LongShortIndicators},
		{"tradeTypeTotal", d.TradeTypeTotal},
		{"symbolMoney", d.SymbolMoney},
		{"symbolDeals", d.SymbolDeals},
		{"symbolIndicators", d.SymbolIndicators},
		{"symbolsTotal", d.SymbolsTotal},
		{"symbolTypes", d.SymbolTypes},
		{"drawdown", d.Drawdown},
		{"risksIndicators", d.RisksIndicators},
		{"risksMfeMaePercent", d.RisksMfeMaePercent},
		{"risksMfeMaeMoney", d.RisksMfeMaeMoney},
	} {
		if len(s.m) > 0 {
			names = append(names, s.name)
		}
	}
	return names
}
