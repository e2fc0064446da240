package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"firebase.google.com/go/v4/db"

	"frugal/internal/store"
)

// Store implements the store facade over the Firebase Realtime Database.
// Records live at namespace/userID/recordID; appended records use RTDB push
// keys, which are chronologically ordered, and keyed upserts use an id
// derived from the dedup key so the conditional insert is a single-node
// transaction.
type Store struct {
	client *db.Client
}

// NewStore creates an RTDB-backed store.
func NewStore(client *Client) *Store {
	return &Store{client: client.db}
}

var _ store.Store = (*Store)(nil)

func recordPath(namespace, userID, id string) string {
	return fmt.Sprintf("%s/%s/%s", namespace, userID, id)
}

// keyedID derives a stable RTDB child key from a dedup key. RTDB keys may
// not contain '.', '#', '$', '[', ']' or '/'. Bytes outside the safe set are
// hex-escaped with '_' as the marker; '_' itself is escaped so distinct keys
// never map to the same child id.
func keyedID(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 5)
	b.WriteString("sync-")
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, store.ErrUnavailable, err)
}

// Append stores a new record under a generated push key.
func (s *Store) Append(ctx context.Context, namespace, userID string, record any) (string, error) {
	ref := s.client.NewRef(fmt.Sprintf("%s/%s", namespace, userID))
	child, err := ref.Push(ctx, record)
	if err != nil {
		return "", unavailable("append", err)
	}
	return child.Key, nil
}

// UpsertByKey conditionally inserts the record at its key-derived id. The
// RTDB transaction makes the check-and-insert atomic per key.
func (s *Store) UpsertByKey(ctx context.Context, namespace, userID, key string, record any) (string, bool, error) {
	id := keyedID(key)
	ref := s.client.NewRef(recordPath(namespace, userID, id))

	inserted := false
	err := ref.Transaction(ctx, func(node db.TransactionNode) (any, error) {
		var current map[string]any
		if err := node.Unmarshal(&current); err != nil {
			return nil, err
		}
		if len(current) > 0 {
			inserted = false
			return current, nil
		}
		inserted = true
		return record, nil
	})
	if err != nil {
		return "", false, unavailable("upsert", err)
	}
	return id, inserted, nil
}

// List returns the user's records ordered most recent first by creation
// time.
func (s *Store) List(ctx context.Context, namespace, userID string, limit int) ([]store.Entry, error) {
	ref := s.client.NewRef(fmt.Sprintf("%s/%s", namespace, userID))

	query := ref.OrderByChild("createdAt")
	if limit > 0 {
		query = query.LimitToLast(limit)
	}

	nodes, err := query.GetOrdered(ctx)
	if err != nil {
		return nil, unavailable("list", err)
	}

	// GetOrdered returns oldest first; reverse for most-recent-first.
	entries := make([]store.Entry, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		var raw json.RawMessage
		if err := nodes[i].Unmarshal(&raw); err != nil {
			return nil, fmt.Errorf("list: failed to read record %s: %w", nodes[i].Key(), err)
		}
		entries = append(entries, store.Entry{ID: nodes[i].Key(), Data: raw})
	}
	return entries, nil
}

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, namespace, userID, id string) (*store.Entry, error) {
	var raw json.RawMessage
	if err := s.client.NewRef(recordPath(namespace, userID, id)).Get(ctx, &raw); err != nil {
		return nil, unavailable("get", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, store.ErrNotFound
	}
	return &store.Entry{ID: id, Data: raw}, nil
}

// Update applies a field-level patch to an existing record.
func (s *Store) Update(ctx context.Context, namespace, userID, id string, patch map[string]any) error {
	// RTDB Update would create the path; check existence to keep the facade's
	// not-found contract.
	if _, err := s.Get(ctx, namespace, userID, id); err != nil {
		return err
	}
	if err := s.client.NewRef(recordPath(namespace, userID, id)).Update(ctx, patch); err != nil {
		return unavailable("update", err)
	}
	return nil
}

// Remove deletes a single record by id.
func (s *Store) Remove(ctx context.Context, namespace, userID, id string) error {
	if _, err := s.Get(ctx, namespace, userID, id); err != nil {
		return err
	}
	if err := s.client.NewRef(recordPath(namespace, userID, id)).Delete(ctx); err != nil {
		return unavailable("remove", err)
	}
	return nil
}

// UserIDs returns every user with records in the namespace. Used by the
// scheduler's job provider; not part of the store facade.
func (s *Store) UserIDs(ctx context.Context, namespace string) ([]string, error) {
	var shallow map[string]any
	if err := s.client.NewRef(namespace).GetShallow(ctx, &shallow); err != nil {
		return nil, unavailable("list users", err)
	}

	users := make([]string, 0, len(shallow))
	for userID := range shallow {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users, nil
}
