// Package store defines the path-addressed persistence facade used by the
// domain layer. Records live under namespace/userID/recordID and are opaque
// JSON documents; the concrete backend is injected at construction time.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Logical namespaces, one per record kind, each partitioned by user.
const (
	NamespaceAccounts      = "accounts"
	NamespaceTransactions  = "transactions"
	NamespaceNotifications = "notifications"
)

var (
	// ErrNotFound is returned when a record does not exist at the given path.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// Callers may retry at their discretion; partial writes are never visible.
	ErrUnavailable = errors.New("store unavailable")
)

// Entry is a stored record together with its generated id.
type Entry struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the entry payload into v.
func (e Entry) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Store is the persistence contract consumed by the domain services.
//
// Generated ids are unique and monotonically orderable, so most-recent-first
// listing is a reverse id ordering. UpsertByKey is atomic per
// (namespace, userID, key): under concurrent callers exactly one insert wins
// and every other caller observes wasInsert=false with the winner's id.
type Store interface {
	// Append stores a new record under a generated id. Never overwrites.
	Append(ctx context.Context, namespace, userID string, record any) (string, error)

	// UpsertByKey conditionally inserts a record under the given dedup key.
	// Returns the id of the stored record and whether this call inserted it.
	UpsertByKey(ctx context.Context, namespace, userID, key string, record any) (string, bool, error)

	// List returns the user's records, most recent first. A limit <= 0 means
	// no limit.
	List(ctx context.Context, namespace, userID string, limit int) ([]Entry, error)

	// Get returns a single record or ErrNotFound.
	Get(ctx context.Context, namespace, userID, id string) (*Entry, error)

	// Update applies a field-level patch to an existing record. Fields absent
	// from the patch are left untouched. Returns ErrNotFound if the record
	// does not exist.
	Update(ctx context.Context, namespace, userID, id string, patch map[string]any) error

	// Remove deletes a single record. Returns ErrNotFound if absent.
	Remove(ctx context.Context, namespace, userID, id string) error
}
