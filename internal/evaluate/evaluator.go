package evaluate

import (
	"fmt"
	"sort"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
)

// Evaluator applies program rules to normalized reports.
type Evaluator struct {
	clock func() time.Time
}

// NewEvaluator creates an evaluator stamping results with the wall clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{clock: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (e *Evaluator) WithClock(clock func() time.Time) *Evaluator {
	e.clock = clock
	return e
}

// Evaluate checks the document against its program's rules and returns the
// evaluation. The document itself is not modified; use Attach to embed the
// result.
func (e *Evaluator) Evaluate(doc *domain.ReportDocument, credentialKey string) *domain.Evaluation {
	program := InferProgram(doc.Name, credentialKey)
	rules := RulesFor(program)

	initialBalance := depositAmount(doc.Summary)
	currentBalance := numberAt(doc.Balance, "balance")
	currentEquity := numberAt(doc.Balance, "equity")
	chart := chartPoints(doc.Balance)

	var breaches []domain.Breach
	metrics := map[string]any{
		"initial_balance": initialBalance,
		"current_balance": currentBalance,
		"current_equity":  currentEquity,
	}

	// Maximum loss: the worst balance or equity reading across the whole
	// chart must stay above the program floor.
	if initialBalance > 0 {
		worst := worstReading(chart, currentBalance, currentEquity)
		threshold := initialBalance * (1 - rules.MaxLossLimit)
		metrics["worst_balance_or_equity"] = worst
		if worst < threshold {
			breaches = append(breaches, domain.Breach{
				Rule:      RuleMaxLoss,
				Severity:  severityCritical,
				Observed:  worst,
				Threshold: threshold,
				Message:   "Minimum balance/equity fell below maximum loss limit.",
			})
		}
	}

	// Daily loss: current equity measured against the higher of the day's
	// starting balance and equity.
	if dayStart, ok := dailyStart(chart); ok {
		threshold := dayStart.higher * (1 - rules.DailyLossLimit)
		metrics["daily_start_balance"] = dayStart.balance
		metrics["daily_start_equity"] = dayStart.equity
		metrics["latest_equity"] = dayStart.latestEquity
		if dayStart.latestEquity < threshold {
			breaches = append(breaches, domain.Breach{
				Rule:      RuleDailyLoss,
				Severity:  severityCritical,
				Observed:  dayStart.latestEquity,
				Threshold: threshold,
				Message:   "Current equity dropped below daily loss limit.",
			})
		}
	}

	// Inactivity: a run of consecutive days with unchanged equity beyond the
	// program limit.
	inactiveDays := longestInactiveRun(chart)
	metrics["consecutive_inactive_days"] = inactiveDays
	if inactiveDays > rules.MaxInactivityDays {
		breaches = append(breaches, domain.Breach{
			Rule:      RuleInactivity,
			Severity:  severityCritical,
			Observed:  float64(inactiveDays),
			Threshold: float64(rules.MaxInactivityDays),
			Message: fmt.Sprintf("Equity unchanged for %d consecutive days (exceeds %d day limit).",
				inactiveDays, rules.MaxInactivityDays),
		})
	}

	// Profitable days and the profit target gate UNDER REVIEW, never a breach.
	profitableDays := countProfitableDays(doc.ProfitDaily, initialBalance)
	metrics["profitable_days"] = profitableDays

	profitTargetHit := false
	if initialBalance > 0 {
		profitPercent := (currentEquity - initialBalance) / initialBalance
		profitTargetHit = profitPercent >= rules.ProfitTarget
		metrics["profit_percent"] = profitPercent
	}
	metrics["profit_target_hit"] = profitTargetHit

	status := domain.StatusActive
	isBreached := len(breaches) > 0
	switch {
	case isBreached:
		status = domain.StatusBreached
	case profitTargetHit && profitableDays >= rules.MinProfitableDays:
		status = domain.StatusUnderReview
	}

	reasons := make([]string, 0, len(breaches))
	for _, b := range breaches {
		reasons = append(reasons, b.Rule)
	}

	return &domain.Evaluation{
		Program:       program,
		Rules:         rules,
		EvaluatedAt:   e.clock(),
		Status:        status,
		IsBreached:    isBreached,
		Breaches:      breaches,
		BreachReasons: reasons,
		CredentialKey: credentialKey,
		Metrics:       metrics,
	}
}

// Attach embeds the evaluation into the document so the stored report carries
// its own status.
func Attach(doc *domain.ReportDocument, ev *domain.Evaluation) {
	doc.CredentialKey = ev.CredentialKey
	doc.Status = string(ev.Status)
	doc.IsBreached = ev.IsBreached
	doc.BreachReasons = ev.BreachReasons
	doc.Evaluation = ev
}

// balancePoint is one reading of the balance chart: a timestamp with the
// balance and equity values at that moment.
type balancePoint struct {
	ts      time.Time
	balance float64
	equity  float64
	valid   bool // y carried the [balance, equity] pair
}

// chartPoints decodes balance.chart, tolerating malformed points.
func chartPoints(balance map[string]any) []balancePoint {
	raw, _ := balance["chart"].([]any)
	points := make([]balancePoint, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		x, _ := m["x"].(float64)
		p := balancePoint{ts: time.Unix(int64(x), 0).UTC()}
		if y, ok := m["y"].([]any); ok && len(y) >= 2 {
			p.balance, _ = y[0].(float64)
			p.equity, _ = y[1].(float64)
			p.valid = true
		}
		points = append(points, p)
	}
	return points
}

// worstReading returns the lowest balance or equity seen across the chart,
// falling back to the current values on an empty chart.
func worstReading(chart []balancePoint, currentBalance, currentEquity float64) float64 {
	minBalance := currentBalance
	minEquity := currentEquity
	seen := false
	for _, p := range chart {
		if !p.valid {
			continue
		}
		if !seen {
			minBalance, minEquity = p.balance, p.equity
			seen = true
			continue
		}
		if p.balance < minBalance {
			minBalance = p.balance
		}
		if p.equity < minEquity {
			minEquity = p.equity
		}
	}
	if minEquity < minBalance {
		return minEquity
	}
	return minBalance
}

// dayStartValues carries the opening readings of the chart's latest UTC day.
type dayStartValues struct {
	balance      float64
	equity       float64
	higher       float64
	latestEquity float64
}

// dailyStart locates the first reading of the latest day on the chart. The
// second return is false when the chart is empty or the latest point carries
// no usable equity.
func dailyStart(chart []balancePoint) (dayStartValues, bool) {
	if len(chart) == 0 {
		return dayStartValues{}, false
	}
	latest := chart[len(chart)-1]
	if !latest.valid {
		return dayStartValues{}, false
	}

	out := dayStartValues{
		balance:      latest.balance,
		equity:       latest.equity,
		latestEquity: latest.equity,
	}
	ly, lm, ld := latest.ts.Date()
	for _, p := range chart {
		y, m, d := p.ts.Date()
		if y == ly && m == lm && d == ld {
			out.balance = p.balance
			out.equity = p.equity
			break
		}
	}
	out.higher = out.balance
	if out.equity > out.higher {
		out.higher = out.equity
	}
	return out, true
}

// longestInactiveRun counts the longest streak of consecutive chart days
// whose opening equity did not move.
func longestInactiveRun(chart []balancePoint) int {
	if len(chart) < 2 {
		return 0
	}

	// First equity reading per UTC day.
	daily := make(map[string]float64)
	var days []string
	for _, p := range chart {
		key := p.ts.Format("2006-01-02")
		if _, seen := daily[key]; seen {
			continue
		}
		equity := p.equity
		if !p.valid {
			equity = 0
		}
		daily[key] = equity
		days = append(days, key)
	}
	if len(days) < 2 {
		return 0
	}
	sort.Strings(days)

	maxRun, run := 0, 1
	for i := 1; i < len(days); i++ {
		diff := daily[days[i]] - daily[days[i-1]]
		if diff < 0 {
			diff = -diff
		}
		if diff < equityTolerance {
			run++
		} else {
			if run > maxRun {
				maxRun = run
			}
			run = 1
		}
	}
	if run > maxRun {
		maxRun = run
	}
	return maxRun
}

// countProfitableDays counts profitDaily chart entries whose net profit
// reaches the minimum fraction of the initial balance.
func countProfitableDays(profitDaily map[string]any, initialBalance float64) int {
	if initialBalance <= 0 {
		return 0
	}
	raw, _ := profitDaily["chart"].([]any)
	threshold := initialBalance * minProfitableDayFraction

	profitable := 0
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		y, _ := m["y"].([]any)
		var dayNet float64
		for _, v := range y {
			if f, ok := v.(float64); ok {
				dayNet += f
			}
		}
		if dayNet >= threshold {
			profitable++
		}
	}
	return profitable
}

// depositAmount reads the initial balance from summary.deposit, which the
// terminal emits as an [amount, count] pair.
func depositAmount(summary map[string]any) float64 {
	deposit, ok := summary["deposit"].([]any)
	if !ok || len(deposit) == 0 {
		return 0
	}
	f, _ := deposit[0].(float64)
	return f
}

// numberAt reads a float leaf from a section, zero when absent.
func numberAt(section map[string]any, key string) float64 {
	f, _ := section[key].(float64)
	return f
}
