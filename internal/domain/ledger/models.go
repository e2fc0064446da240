// Package ledger provides the user's transaction ledger: manual entry,
// queries, field-level updates, and period summaries.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction sources
const (
	SourceManual = "manual"
	SourceSynced = "synced"
)

// FallbackCategory is used when a synced transaction carries no provider
// taxonomy.
const FallbackCategory = "Other"

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidType         = errors.New("transaction type must be 'income' or 'expense'")
	ErrInvalidAmount       = errors.New("transaction amount is required")
	ErrInvalidDate         = errors.New("transaction date is required")
	ErrInvalidCategory     = errors.New("transaction category is required")
)

// Transaction is a single ledger record. ExternalID is set only for synced
// transactions and is unique per user; manual entries carry an empty
// ExternalID and are never deduplicated against sync.
type Transaction struct {
	ID          string          `json:"-"`
	UserID      string          `json:"userId"`
	ExternalID  string          `json:"externalId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Source      string          `json:"source"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateTransactionParams contains the fields for a manual ledger entry.
type CreateTransactionParams struct {
	Amount      decimal.Decimal
	Type        string
	Category    string
	Description string
	Date        time.Time
}

// Validate rejects malformed input before any side effect.
func (p CreateTransactionParams) Validate() error {
	if p.Type != TypeIncome && p.Type != TypeExpense {
		return ErrInvalidType
	}
	if p.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if p.Category == "" {
		return ErrInvalidCategory
	}
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// UpdateTransactionParams is a field-level patch. Nil fields are left
// untouched; ExternalID and Source are deliberately not patchable so a
// partial update can never detach a synced record from its dedup key.
type UpdateTransactionParams struct {
	Amount      *decimal.Decimal
	Type        *string
	Category    *string
	Description *string
	Date        *time.Time
}

// Validate checks the supplied fields only.
func (p UpdateTransactionParams) Validate() error {
	if p.Type != nil && *p.Type != TypeIncome && *p.Type != TypeExpense {
		return ErrInvalidType
	}
	if p.Category != nil && *p.Category == "" {
		return ErrInvalidCategory
	}
	return nil
}

// Filter narrows ListTransactions results. Date bounds are half-open:
// [StartDate, EndDate).
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Limit     int
}

// SummaryReport holds income/expense totals for a period. It is recomputed
// from the ledger on every request and never persisted.
type SummaryReport struct {
	StartDate    time.Time                  `json:"startDate"`
	EndDate      time.Time                  `json:"endDate"`
	TotalIncome  decimal.Decimal            `json:"totalIncome"`
	TotalExpense decimal.Decimal            `json:"totalExpense"`
	NetBalance   decimal.Decimal            `json:"netBalance"`
	ByCategory   map[string]decimal.Decimal `json:"byCategory"`
}
