package domain

import "time"

// Program identifies the challenge program an account is enrolled in. The
// program determines which rule limits apply during evaluation.
type Program string

const (
	ProgramOneStep       Program = "1_STEP"
	ProgramTwoStepPhase1 Program = "2_STEP_PHASE_1"
	ProgramTwoStepPhase2 Program = "2_STEP_PHASE_2"
)

// String returns the string representation of the program.
func (p Program) String() string {
	return string(p)
}

// IsValid checks if the program is a known value.
func (p Program) IsValid() bool {
	return p == ProgramOneStep || p == ProgramTwoStepPhase1 || p == ProgramTwoStepPhase2
}

// AccountStatus is the lifecycle state derived from rule evaluation.
type AccountStatus string

const (
	StatusActive      AccountStatus = "ACTIVE"
	StatusBreached    AccountStatus = "BREACHED"
	StatusUnderReview AccountStatus = "UNDER REVIEW"
)

// ProgramRules holds the limits applied to accounts in one program. Loss
// limits and the profit target are fractions of the initial balance.
type ProgramRules struct {
	ProfitTarget      float64 `bson:"profit_target" json:"profit_target"`
	MaxLossLimit      float64 `bson:"max_loss_limit" json:"max_loss_limit"`
	DailyLossLimit    float64 `bson:"daily_loss_limit" json:"daily_loss_limit"`
	Leverage          string  `bson:"leverage" json:"leverage"`
	MinProfitableDays int     `bson:"min_profitable_days" json:"min_profitable_days"`
	MaxInactivityDays int     `bson:"max_inactivity_days" json:"max_inactivity_days"`
}

// Breach records one violated rule with the observed and allowed values.
type Breach struct {
	Rule      string  `bson:"rule" json:"rule"`
	Severity  string  `bson:"severity" json:"severity"`
	Observed  float64 `bson:"observed" json:"observed"`
	Threshold float64 `bson:"threshold" json:"threshold"`
	Message   string  `bson:"message" json:"message"`
}

// Evaluation is the result of applying program rules to a report. It is
// embedded in the report document so downstream consumers can see which
// limits were checked and with what inputs.
type Evaluation struct {
	Program       Program        `bson:"program" json:"program"`
	Rules         ProgramRules   `bson:"rulesApplied" json:"rulesApplied"`
	EvaluatedAt   time.Time      `bson:"evaluatedAt" json:"evaluatedAt"`
	Status        AccountStatus  `bson:"status" json:"status"`
	IsBreached    bool           `bson:"isBreached" json:"isBreached"`
	Breaches      []Breach       `bson:"breaches" json:"breaches"`
	BreachReasons []string       `bson:"breachReasons" json:"breachReasons"`
	CredentialKey string         `bson:"credentialKey,omitempty" json:"credentialKey,omitempty"`
	Metrics       map[string]any `bson:"metrics" json:"metrics"`
}
