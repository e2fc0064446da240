package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"frugal/internal/store"
)

const defaultMaxScan = 1000

// Notifier receives ledger events. Implemented by the notification
// dispatcher; may be nil.
type Notifier interface {
	TransactionRecorded(ctx context.Context, userID string, tx *Transaction) error
}

// Service contains the business logic for ledger operations.
type Service struct {
	store    store.Store
	notifier Notifier
	maxScan  int
	now      func() time.Time
}

// NewService creates a ledger service. maxScan bounds how many recent
// transactions a summary or list scans; <= 0 uses the default of 1000.
func NewService(st store.Store, notifier Notifier, maxScan int) *Service {
	if maxScan <= 0 {
		maxScan = defaultMaxScan
	}
	return &Service{
		store:    st,
		notifier: notifier,
		maxScan:  maxScan,
		now:      time.Now,
	}
}

// RecordTransaction appends a manual ledger entry and emits a transaction
// event. Validation failures reject the input before any side effect.
func (s *Service) RecordTransaction(ctx context.Context, userID string, params CreateTransactionParams) (*Transaction, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tx := &Transaction{
		UserID:      userID,
		Amount:      params.Amount,
		Type:        params.Type,
		Category:    params.Category,
		Description: params.Description,
		Date:        params.Date,
		Source:      SourceManual,
		CreatedAt:   s.now(),
	}

	id, err := s.store.Append(ctx, store.NamespaceTransactions, userID, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	tx.ID = id

	if s.notifier != nil {
		if err := s.notifier.TransactionRecorded(ctx, userID, tx); err != nil {
			log.Printf("User %s: transaction event for %s failed: %v", userID, id, err)
		}
	}

	return tx, nil
}

// ListTransactions returns the user's transactions, most recent first,
// narrowed by the filter.
func (s *Service) ListTransactions(ctx context.Context, userID string, filter Filter) ([]*Transaction, error) {
	entries, err := s.store.List(ctx, store.NamespaceTransactions, userID, s.maxScan)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	transactions := make([]*Transaction, 0, len(entries))
	for _, entry := range entries {
		tx, err := decodeTransaction(entry)
		if err != nil {
			log.Printf("User %s: skipping undecodable transaction %s: %v", userID, entry.ID, err)
			continue
		}
		if !matchesFilter(tx, filter) {
			continue
		}
		transactions = append(transactions, tx)
		if filter.Limit > 0 && len(transactions) >= filter.Limit {
			break
		}
	}
	return transactions, nil
}

// GetTransaction returns a single transaction owned by the user.
func (s *Service) GetTransaction(ctx context.Context, userID, id string) (*Transaction, error) {
	entry, err := s.store.Get(ctx, store.NamespaceTransactions, userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return decodeTransaction(*entry)
}

// UpdateTransaction applies a field-level patch to a transaction. Only the
// supplied fields change; invariant fields (externalId, source) are never
// touched.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, params UpdateTransactionParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	patch := make(map[string]any)
	if params.Amount != nil {
		patch["amount"] = *params.Amount
	}
	if params.Type != nil {
		patch["type"] = *params.Type
	}
	if params.Category != nil {
		patch["category"] = *params.Category
	}
	if params.Description != nil {
		patch["description"] = *params.Description
	}
	if params.Date != nil {
		patch["date"] = params.Date.Format(time.RFC3339Nano)
	}
	if len(patch) == 0 {
		return nil
	}

	err := s.store.Update(ctx, store.NamespaceTransactions, userID, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTransactionNotFound
	}
	return err
}

// DeleteTransaction removes a transaction owned by the user.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	err := s.store.Remove(ctx, store.NamespaceTransactions, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTransactionNotFound
	}
	return err
}

func matchesFilter(tx *Transaction, filter Filter) bool {
	if filter.StartDate != nil && tx.Date.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && !tx.Date.Before(*filter.EndDate) {
		return false
	}
	if filter.Category != "" && tx.Category != filter.Category {
		return false
	}
	return true
}

func decodeTransaction(entry store.Entry) (*Transaction, error) {
	var tx Transaction
	if err := entry.Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", entry.ID, err)
	}
	tx.ID = entry.ID
	return &tx, nil
}
