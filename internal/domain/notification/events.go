package notification

import (
	"context"
	"fmt"

	"frugal/internal/domain/ledger"
)

// TransactionRecorded dispatches a transaction event for a new ledger
// record. Satisfies the ledger and banking Notifier interfaces.
func (d *Dispatcher) TransactionRecorded(ctx context.Context, userID string, tx *ledger.Transaction) error {
	label := "Expense"
	if tx.Type == ledger.TypeIncome {
		label = "Income"
	}

	event := Event{
		Type:  TypeTransaction,
		Title: fmt.Sprintf("%s: %s", label, tx.Category),
		Body:  fmt.Sprintf("$%s on %s", tx.Amount.StringFixed(2), tx.Date.Format("2006-01-02")),
		Payload: map[string]any{
			"transactionId": tx.ID,
			"amount":        tx.Amount,
			"category":      tx.Category,
			"type":          tx.Type,
			"source":        tx.Source,
		},
		Data: map[string]string{
			"transactionId": tx.ID,
			"type":          tx.Type,
		},
	}

	_, err := d.Dispatch(ctx, userID, event)
	return err
}

// SyncCompleted dispatches a banking event summarizing a sync run.
func (d *Dispatcher) SyncCompleted(ctx context.Context, userID string, inserted int) error {
	event := Event{
		Type:    TypeBanking,
		Title:   "Bank sync complete",
		Body:    fmt.Sprintf("%d new transactions synced", inserted),
		Payload: map[string]any{"synced": inserted},
		Data:    map[string]string{"route": "banking"},
	}

	_, err := d.Dispatch(ctx, userID, event)
	return err
}
