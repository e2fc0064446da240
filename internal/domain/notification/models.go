// Package notification turns ledger and sync events into persisted
// notification records and best-effort multi-channel delivery.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Notification types
const (
	TypeTransaction = "transaction"
	TypeBanking     = "banking"
	TypeSystem      = "system"
)

var validTypes = map[string]struct{}{
	TypeTransaction: {},
	TypeBanking:     {},
	TypeSystem:      {},
}

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidType          = errors.New("invalid notification type")
	ErrInvalidTitle         = errors.New("notification title is required")
)

// Notification is a persisted notification record. Its existence is
// independent of whether any delivery channel succeeded; Read is toggled
// only by the user.
type Notification struct {
	ID        string         `json:"-"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
	ReadAt    *time.Time     `json:"readAt,omitempty"`
}

// Event is the input to Dispatch. Payload is persisted with the record; Data
// rides along on push messages only.
type Event struct {
	Type    string
	Title   string
	Body    string
	Payload map[string]any
	Data    map[string]string
}

// Validate rejects malformed events before any side effect.
func (e Event) Validate() error {
	if !IsValidType(e.Type) {
		return ErrInvalidType
	}
	if e.Title == "" {
		return ErrInvalidTitle
	}
	return nil
}

// IsValidType reports whether t is a known notification type.
func IsValidType(t string) bool {
	_, ok := validTypes[t]
	return ok
}

// PartialError reports a batch operation that completed for some records and
// failed for others. It is never collapsed into a plain success/failure flag.
type PartialError struct {
	Op      string
	Total   int
	Removed int
	Errors  []string
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: removed %d/%d records, %d failed: %s",
		e.Op, e.Removed, e.Total, len(e.Errors), strings.Join(e.Errors, "; "))
}
