package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"frugal/internal/store"
)

// Summarize computes income/expense totals over the half-open window
// [startDate, endDate). The result is a pure function of the ledger's
// current snapshot: recomputation is idempotent and fold order does not
// matter. The scan is bounded to the service's maxScan most recent records.
func (s *Service) Summarize(ctx context.Context, userID string, startDate, endDate time.Time) (*SummaryReport, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if !endDate.After(startDate) {
		return nil, errors.New("end date must be after start date")
	}

	entries, err := s.store.List(ctx, store.NamespaceTransactions, userID, s.maxScan)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	report := &SummaryReport{
		StartDate:  startDate,
		EndDate:    endDate,
		ByCategory: make(map[string]decimal.Decimal),
	}

	for _, entry := range entries {
		tx, err := decodeTransaction(entry)
		if err != nil {
			// A record that does not decode contributes nothing.
			continue
		}
		if tx.Date.Before(startDate) || !tx.Date.Before(endDate) {
			continue
		}

		// The Amount zero value is 0, so a missing amount folds as 0.
		switch tx.Type {
		case TypeIncome:
			report.TotalIncome = report.TotalIncome.Add(tx.Amount)
		case TypeExpense:
			report.TotalExpense = report.TotalExpense.Add(tx.Amount)
			category := tx.Category
			if category == "" {
				category = FallbackCategory
			}
			report.ByCategory[category] = report.ByCategory[category].Add(tx.Amount)
		}
	}

	report.NetBalance = report.TotalIncome.Sub(report.TotalExpense)
	return report, nil
}
