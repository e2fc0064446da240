package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store implementation. It backs demo mode and
// tests; construction-time substitution keeps the domain layer identical
// across backends.
type MemoryStore struct {
	mu   sync.Mutex
	seq  uint64
	data map[string]map[string]json.RawMessage // namespace/userID -> id -> record
	keys map[string]map[string]string          // namespace/userID -> dedup key -> id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]json.RawMessage),
		keys: make(map[string]map[string]string),
	}
}

var _ Store = (*MemoryStore)(nil)

func bucketKey(namespace, userID string) string {
	return namespace + "/" + userID
}

// nextID generates a monotonically orderable id: a fixed-width millisecond
// timestamp and sequence number, plus a short random suffix for uniqueness.
// Callers must hold mu.
func (s *MemoryStore) nextID() string {
	s.seq++
	return fmt.Sprintf("%013d-%08d-%s", time.Now().UnixMilli(), s.seq, uuid.NewString()[:8])
}

func (s *MemoryStore) bucket(namespace, userID string) map[string]json.RawMessage {
	bk := bucketKey(namespace, userID)
	if s.data[bk] == nil {
		s.data[bk] = make(map[string]json.RawMessage)
	}
	return s.data[bk]
}

func (s *MemoryStore) keyIndex(namespace, userID string) map[string]string {
	bk := bucketKey(namespace, userID)
	if s.keys[bk] == nil {
		s.keys[bk] = make(map[string]string)
	}
	return s.keys[bk]
}

// Append stores a new record under a generated id.
func (s *MemoryStore) Append(ctx context.Context, namespace, userID string, record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID()
	s.bucket(namespace, userID)[id] = raw
	return id, nil
}

// UpsertByKey inserts the record unless a record with the same dedup key
// already exists for this user. The check-and-insert is atomic under the
// store mutex.
func (s *MemoryStore) UpsertByKey(ctx context.Context, namespace, userID, key string, record any) (string, bool, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.keyIndex(namespace, userID)
	if existing, ok := idx[key]; ok {
		return existing, false, nil
	}

	id := s.nextID()
	s.bucket(namespace, userID)[id] = raw
	idx[key] = id
	return id, true, nil
}

// List returns the user's records ordered most recent first.
func (s *MemoryStore) List(ctx context.Context, namespace, userID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.data[bucketKey(namespace, userID)]
	entries := make([]Entry, 0, len(bucket))
	for id, raw := range bucket {
		entries = append(entries, Entry{ID: id, Data: raw})
	}

	// Ids are fixed-width and time-prefixed, so lexicographic order is
	// insertion order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID > entries[j].ID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns a single record by id.
func (s *MemoryStore) Get(ctx context.Context, namespace, userID, id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[bucketKey(namespace, userID)][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Entry{ID: id, Data: raw}, nil
}

// Update applies a field-level patch to an existing record.
func (s *MemoryStore) Update(ctx context.Context, namespace, userID, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.data[bucketKey(namespace, userID)]
	raw, ok := bucket[id]
	if !ok {
		return ErrNotFound
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	for field, value := range patch {
		record[field] = value
	}

	updated, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal patched record: %w", err)
	}
	bucket[id] = updated
	return nil
}

// Remove deletes a single record by id.
func (s *MemoryStore) Remove(ctx context.Context, namespace, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bk := bucketKey(namespace, userID)
	if _, ok := s.data[bk][id]; !ok {
		return ErrNotFound
	}
	delete(s.data[bk], id)

	// Drop any dedup key pointing at the removed record.
	for key, mapped := range s.keys[bk] {
		if mapped == id {
			delete(s.keys[bk], key)
		}
	}
	return nil
}

// UserIDs returns every user with at least one record in the namespace.
// Used by the scheduler's job provider; not part of the Store contract.
func (s *MemoryStore) UserIDs(ctx context.Context, namespace string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := namespace + "/"
	var users []string
	for bk, bucket := range s.data {
		if len(bucket) == 0 || len(bk) <= len(prefix) || bk[:len(prefix)] != prefix {
			continue
		}
		users = append(users, bk[len(prefix):])
	}
	sort.Strings(users)
	return users, nil
}
