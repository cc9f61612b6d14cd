package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/19arnab190201/guimt5-automation/internal/domain"
	"github.com/19arnab190201/guimt5-automation/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu    sync.RWMutex
	data  map[int64]*domain.ReportDocument // keyed by account
	clock func() time.Time
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		data:  make(map[int64]*domain.ReportDocument),
		clock: time.Now,
	}
}

// WithClock overrides the time source used to stamp updatedAt.
func (s *ReportStore) WithClock(clock func() time.Time) *ReportStore {
	s.clock = clock
	return s
}

// Upsert stores the document keyed by its account number, replacing any
// previous report for that account.
func (s *ReportStore) Upsert(_ context.Context, doc *domain.ReportDocument) error {
	if doc == nil || doc.Account == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	docCopy := copyDocument(doc)
	docCopy.UpdatedAt = s.clock()
	s.data[doc.Account] = docCopy
	return nil
}

// GetByAccount retrieves the report for an account. Returns ErrNotFound if
// no report has been stored.
func (s *ReportStore) GetByAccount(_ context.Context, account int64) (*domain.ReportDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.data[account]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyDocument(doc), nil
}

// ListAccounts retrieves all stored reports ordered by account number.
func (s *ReportStore) ListAccounts(_ context.Context) ([]domain.ReportDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ReportDocument, 0, len(s.data))
	for _, doc := range s.data {
		result = append(result, *copyDocument(doc))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Account < result[j].Account
	})
	return result, nil
}

func copyDocument(doc *domain.ReportDocument) *domain.ReportDocument {
	out := *doc
	out.Summary = copySection(doc.Summary)
	out.SummaryIndicators = copySection(doc.SummaryIndicators)
	out.Balance = copySection(doc.Balance)
	out.Growth = copySection(doc.Growth)
	out.Dividend = copySection(doc.Dividend)
	out.ProfitTotal = copySection(doc.ProfitTotal)
	out.ProfitMoney = copySection(doc.ProfitMoney)
	out.ProfitDeals = copySection(doc.ProfitDeals)
	out.ProfitDaily = copySection(doc.ProfitDaily)
	out.ProfitType = copySection(doc.ProfitType)
	out.LongShortTotal = copySection(doc.LongShortTotal)
	out.LongShort = copySection(doc.LongShort)
	out.LongShortDaily = copySection(doc.LongShortDaily)
	out.LongShortIndicators = copySection(doc.LongShortIndicators)
	out.TradeTypeTotal = copySection(doc.TradeTypeTotal)
	out.SymbolMoney = copySection(doc.SymbolMoney)
	out.SymbolDeals = copySection(doc.SymbolDeals)
	out.SymbolIndicators = copySection(doc.SymbolIndicators)
	out.SymbolsTotal = copySection(doc.SymbolsTotal)
	out.SymbolTypes = copySection(doc.SymbolTypes)
	out.Drawdown = copySection(doc.Drawdown)
	out.RisksIndicators = copySection(doc.RisksIndicators)
	out.RisksMfeMaePercent = copySection(doc.RisksMfeMaePercent)
	out.RisksMfeMaeMoney = copySection(doc.RisksMfeMaeMoney)
	if doc.BreachReasons != nil {
		out.BreachReasons = append([]string(nil), doc.BreachReasons...)
	}
	if doc.Evaluation != nil {
		ev := *doc.Evaluation
		if doc.Evaluation.Breaches != nil {
			ev.Breaches = append([]domain.Breach(nil), doc.Evaluation.Breaches...)
		}
		if doc.Evaluation.Metrics != nil {
			ev.Metrics = copySection(doc.Evaluation.Metrics)
		}
		out.Evaluation = &ev
	}
	return &out
}

func copySection(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copySection(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

// Verify interface compliance at compile time.
var _ storage.ReportStore = (*ReportStore)(nil)
