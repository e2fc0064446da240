package scheduler

import (
	"context"
	"fmt"
	"log"

	"frugal/internal/domain/banking"
)

// BankSyncJob wraps one user's bank sync run for the worker pool.
type BankSyncJob struct {
	userID string
	syncer *banking.Syncer
}

// NewBankSyncJob creates a sync job for a user.
func NewBankSyncJob(userID string, syncer *banking.Syncer) *BankSyncJob {
	return &BankSyncJob{userID: userID, syncer: syncer}
}

// Execute runs the sync. Per-account failures are part of the report, not an
// error; only a run that could not start at all is returned for retry.
func (j *BankSyncJob) Execute(ctx context.Context) error {
	report, err := j.syncer.SyncUser(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if failed := report.FailedAccounts(); failed > 0 {
		log.Printf("Bank sync for user %s: %d/%d accounts failed, inserted=%d",
			j.userID, failed, len(report.Results), report.TotalInserted)
		return nil
	}

	log.Printf("Bank sync for user %s: inserted=%d", j.userID, report.TotalInserted)
	return nil
}

// UserID returns the user this job syncs.
func (j *BankSyncJob) UserID() string {
	return j.userID
}

// Description returns a human-readable description of the job.
func (j *BankSyncJob) Description() string {
	return fmt.Sprintf("bank sync for user %s", j.userID)
}
