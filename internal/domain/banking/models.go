// Package banking provides linked-account management and the bank sync
// orchestrator that pulls provider transactions into the ledger.
package banking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"frugal/internal/domain/ledger"
)

// ErrAccountNotFound is returned when a linked account id does not exist.
var ErrAccountNotFound = errors.New("linked account not found")

// LinkedAccount is a user's authorization grant to fetch transactions from
// one external bank. AccessSecretRef is opaque and never returned to callers.
type LinkedAccount struct {
	ID              string     `json:"-"`
	UserID          string     `json:"userId"`
	ExternalItemID  string     `json:"externalItemId"`
	AccessSecretRef string     `json:"accessSecretRef,omitempty"`
	LastSyncCursor  *time.Time `json:"lastSyncCursor,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Redacted returns a copy safe to hand to callers.
func (a LinkedAccount) Redacted() *LinkedAccount {
	a.AccessSecretRef = ""
	return &a
}

// SyncResult is the per-account outcome of one sync run. When Failed is
// false, Inserted+Duplicates == Fetched.
type SyncResult struct {
	AccountID  string `json:"accountId"`
	Fetched    int    `json:"fetched"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Failed     bool   `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// SyncRunReport aggregates per-account results for one SyncUser call. A
// failed account never fails the run; partial success is the normal case.
type SyncRunReport struct {
	UserID        string       `json:"userId"`
	Results       []SyncResult `json:"results"`
	TotalInserted int          `json:"totalInserted"`
	StartedAt     time.Time    `json:"startedAt"`
	FinishedAt    time.Time    `json:"finishedAt"`
}

// FailedAccounts returns how many accounts failed in this run.
func (r *SyncRunReport) FailedAccounts() int {
	failed := 0
	for _, result := range r.Results {
		if result.Failed {
			failed++
		}
	}
	return failed
}

// MappingPolicy controls how provider transactions map onto ledger records.
// The provider's sign convention is not universal, so it is configuration
// rather than a hard-coded assumption.
type MappingPolicy struct {
	// PositiveIsExpense: a positive provider amount is money leaving the
	// account. This is the common aggregator convention and the default.
	PositiveIsExpense bool

	// FallbackCategory is used when the provider omits a taxonomy.
	FallbackCategory string
}

// DefaultMappingPolicy returns the common aggregator convention.
func DefaultMappingPolicy() MappingPolicy {
	return MappingPolicy{
		PositiveIsExpense: true,
		FallbackCategory:  ledger.FallbackCategory,
	}
}

// TypeForAmount derives the ledger transaction type from the provider amount.
func (p MappingPolicy) TypeForAmount(amount decimal.Decimal) string {
	if amount.IsPositive() == p.PositiveIsExpense {
		return ledger.TypeExpense
	}
	return ledger.TypeIncome
}

// Category applies the fallback taxonomy.
func (p MappingPolicy) Category(providerCategory string) string {
	if providerCategory == "" {
		return p.FallbackCategory
	}
	return providerCategory
}
