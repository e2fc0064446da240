package banking

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"frugal/internal/domain/ledger"
	"frugal/internal/infrastructure/plaid"
	"frugal/internal/store"
)

const (
	defaultParallelism = 4
	defaultRunTimeout  = 5 * time.Minute
	defaultFetchWindow = 30 * 24 * time.Hour
)

// Notifier receives sync events. Implemented by the notification dispatcher;
// may be nil.
type Notifier interface {
	TransactionRecorded(ctx context.Context, userID string, tx *ledger.Transaction) error
	SyncCompleted(ctx context.Context, userID string, inserted int) error
}

// Syncer orchestrates one sync run per user: it fetches provider
// transactions for each linked account with bounded parallelism, merges them
// into the ledger idempotently, and advances each account's cursor.
type Syncer struct {
	accounts *Service
	store    store.Store
	client   plaid.ClientInterface
	notifier Notifier
	policy   MappingPolicy

	parallelism int
	runTimeout  time.Duration
	fetchWindow time.Duration
	now         func() time.Time
}

// SyncerConfig holds tuning knobs for the orchestrator. Zero values use the
// defaults.
type SyncerConfig struct {
	Parallelism int
	RunTimeout  time.Duration
	FetchWindow time.Duration
}

// NewSyncer creates a sync orchestrator.
func NewSyncer(accounts *Service, st store.Store, client plaid.ClientInterface, notifier Notifier, policy MappingPolicy, cfg SyncerConfig) *Syncer {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	if cfg.FetchWindow <= 0 {
		cfg.FetchWindow = defaultFetchWindow
	}
	return &Syncer{
		accounts:    accounts,
		store:       st,
		client:      client,
		notifier:    notifier,
		policy:      policy,
		parallelism: cfg.Parallelism,
		runTimeout:  cfg.RunTimeout,
		fetchWindow: cfg.FetchWindow,
		now:         time.Now,
	}
}

// SyncUser runs one sync pass over every linked account of the user. One
// account failing never aborts the others; failures are attached to the
// per-account results. The run is capped by the configured timeout; accounts
// not started before the deadline are reported as failed rather than dropped.
func (s *Syncer) SyncUser(ctx context.Context, userID string) (*SyncRunReport, error) {
	accounts, err := s.accounts.loadAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked accounts: %w", err)
	}

	report := &SyncRunReport{
		UserID:    userID,
		Results:   make([]SyncResult, len(accounts)),
		StartedAt: s.now(),
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	var group errgroup.Group
	group.SetLimit(s.parallelism)

	for i, account := range accounts {
		group.Go(func() error {
			if runCtx.Err() != nil {
				report.Results[i] = SyncResult{
					AccountID: account.ID,
					Failed:    true,
					Error:     "timeout: run deadline exceeded before account sync started",
				}
				return nil
			}
			report.Results[i] = s.syncAccount(runCtx, userID, account)
			return nil
		})
	}
	group.Wait()

	for _, result := range report.Results {
		report.TotalInserted += result.Inserted
	}
	report.FinishedAt = s.now()

	log.Printf("User %s: sync run complete - accounts=%d inserted=%d failed=%d",
		userID, len(accounts), report.TotalInserted, report.FailedAccounts())

	if s.notifier != nil && len(accounts) > 0 {
		if err := s.notifier.SyncCompleted(ctx, userID, report.TotalInserted); err != nil {
			log.Printf("User %s: sync summary event failed: %v", userID, err)
		}
	}

	return report, nil
}

// syncAccount performs one account's Pending -> Fetching -> Mapping ->
// Cursor Advanced attempt. Any failure leaves the cursor unchanged so the
// next run retries the same window.
func (s *Syncer) syncAccount(ctx context.Context, userID string, account *LinkedAccount) SyncResult {
	result := SyncResult{AccountID: account.ID}

	windowEnd := s.now()
	windowStart := windowEnd.Add(-s.fetchWindow)
	if account.LastSyncCursor != nil && account.LastSyncCursor.After(windowStart) {
		windowStart = *account.LastSyncCursor
	}

	transactions, err := s.client.GetTransactions(ctx, account.AccessSecretRef, windowStart, windowEnd)
	if err != nil {
		result.Failed = true
		result.Error = err.Error()
		if plaid.IsAuthError(err) {
			log.Printf("User %s: account %s needs re-linking: %v", userID, account.ID, err)
		} else {
			log.Printf("User %s: fetch failed for account %s: %v", userID, account.ID, err)
		}
		return result
	}
	result.Fetched = len(transactions)

	for i := range transactions {
		inserted, err := s.ingestTransaction(ctx, userID, &transactions[i])
		if err != nil {
			result.Failed = true
			result.Error = fmt.Sprintf("failed to ingest transaction %s: %v", transactions[i].TransactionID, err)
			log.Printf("User %s: %s", userID, result.Error)
			return result
		}
		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	// Advance the cursor to the window end only after every fetched
	// transaction is durably in the ledger.
	cursorPatch := map[string]any{"lastSyncCursor": windowEnd.Format(time.RFC3339Nano)}
	if err := s.store.Update(ctx, store.NamespaceAccounts, userID, account.ID, cursorPatch); err != nil {
		result.Failed = true
		result.Error = fmt.Sprintf("failed to advance sync cursor: %v", err)
		return result
	}

	log.Printf("User %s: account %s synced - fetched=%d inserted=%d duplicates=%d",
		userID, account.ID, result.Fetched, result.Inserted, result.Duplicates)
	return result
}

// ingestTransaction maps one provider transaction and upserts it under its
// (userID, externalId) dedup key. The upsert is commutative, so concurrent
// or repeated runs insert each external transaction at most once.
func (s *Syncer) ingestTransaction(ctx context.Context, userID string, apiTx *plaid.Transaction) (bool, error) {
	record, err := s.mapTransaction(userID, apiTx)
	if err != nil {
		return false, err
	}

	id, wasInsert, err := s.store.UpsertByKey(ctx, store.NamespaceTransactions, userID, apiTx.TransactionID, record)
	if err != nil {
		return false, err
	}
	if !wasInsert {
		return false, nil
	}
	record.ID = id

	if s.notifier != nil {
		if err := s.notifier.TransactionRecorded(ctx, userID, record); err != nil {
			log.Printf("User %s: transaction event for %s failed: %v", userID, id, err)
		}
	}
	return true, nil
}

// mapTransaction converts a provider transaction into a ledger record. The
// amount is taken verbatim; type and category follow the mapping policy.
func (s *Syncer) mapTransaction(userID string, apiTx *plaid.Transaction) (*ledger.Transaction, error) {
	date, err := apiTx.GetDate()
	if err != nil {
		return nil, err
	}

	return &ledger.Transaction{
		UserID:      userID,
		ExternalID:  apiTx.TransactionID,
		Amount:      apiTx.Amount,
		Type:        s.policy.TypeForAmount(apiTx.Amount),
		Category:    s.policy.Category(apiTx.PrimaryCategory()),
		Description: apiTx.Merchant(),
		Date:        date,
		Source:      ledger.SourceSynced,
		CreatedAt:   s.now(),
	}, nil
}
