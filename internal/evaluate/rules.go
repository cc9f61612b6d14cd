// Package evaluate applies challenge-program rules to a normalized report
// and derives the account status stored alongside it. Rule evaluation never
// feeds back into credential eligibility; that write belongs to the
// persistence coordinator.
package evaluate

import (
	"strings"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
)

// Rule identifiers recorded on breaches.
const (
	RuleMaxLoss    = "MAX_LOSS_LIMIT"
	RuleDailyLoss  = "DAILY_LOSS_LIMIT"
	RuleInactivity = "INACTIVITY"
)

const severityCritical = "critical"

// minProfitableDayFraction is the net daily profit, as a fraction of the
// initial balance, required for a day to count as profitable.
const minProfitableDayFraction = 0.015

// equityTolerance is the float slack under which two daily equity readings
// count as unchanged.
const equityTolerance = 0.01

// programRules maps each program to its limits.
var programRules = map[domain.Program]domain.ProgramRules{
	domain.ProgramTwoStepPhase1: {
		ProfitTarget:      0.08,
		MaxLossLimit:      0.08,
		DailyLossLimit:    0.04,
		Leverage:          "1:100",
		MinProfitableDays: 3,
		MaxInactivityDays: 14,
	},
	domain.ProgramTwoStepPhase2: {
		ProfitTarget:      0.05,
		MaxLossLimit:      0.08,
		DailyLossLimit:    0.04,
		Leverage:          "1:100",
		MinProfitableDays: 3,
		MaxInactivityDays: 14,
	},
	domain.ProgramOneStep: {
		ProfitTarget:      0.10,
		MaxLossLimit:      0.06,
		DailyLossLimit:    0.03,
		Leverage:          "1:50",
		MinProfitableDays: 3,
		MaxInactivityDays: 14,
	},
}

// RulesFor returns the limits for a program. Unknown programs fall back to
// the default program's rules.
func RulesFor(program domain.Program) domain.ProgramRules {
	if rules, ok := programRules[program]; ok {
		return rules
	}
	return programRules[domain.ProgramTwoStepPhase1]
}

// InferProgram derives the challenge program for an account. The credential
// key suffix wins over account-name keywords; with neither, the account is
// assumed to be in the first phase of the two-step program.
func InferProgram(accountName, credentialKey string) domain.Program {
	if credentialKey != "" {
		upper := strings.ToUpper(credentialKey)
		if strings.Contains(upper, "1STEP") {
			return domain.ProgramOneStep
		}
		if strings.Contains(upper, "2STEP") {
			return domain.ProgramTwoStepPhase1
		}
	}

	lowered := strings.ToLower(accountName)
	if strings.Contains(lowered, "1 step") || strings.Contains(lowered, "one step") {
		return domain.ProgramOneStep
	}
	if strings.Contains(lowered, "phase 2") || strings.Contains(lowered, "step 2") || strings.Contains(lowered, "phase two") {
		return domain.ProgramTwoStepPhase2
	}
	return domain.ProgramTwoStepPhase1
}
