package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"frugal/internal/store"
)

// MockStore is a mock implementation of the store.Store interface
type MockStore struct {
	AppendFunc      func(ctx context.Context, namespace, userID string, record any) (string, error)
	UpsertByKeyFunc func(ctx context.Context, namespace, userID, key string, record any) (string, bool, error)
	ListFunc        func(ctx context.Context, namespace, userID string, limit int) ([]store.Entry, error)
	GetFunc         func(ctx context.Context, namespace, userID, id string) (*store.Entry, error)
	UpdateFunc      func(ctx context.Context, namespace, userID, id string, patch map[string]any) error
	RemoveFunc      func(ctx context.Context, namespace, userID, id string) error
}

func (m *MockStore) Append(ctx context.Context, namespace, userID string, record any) (string, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, namespace, userID, record)
	}
	return "generated-id", nil
}

func (m *MockStore) UpsertByKey(ctx context.Context, namespace, userID, key string, record any) (string, bool, error) {
	if m.UpsertByKeyFunc != nil {
		return m.UpsertByKeyFunc(ctx, namespace, userID, key, record)
	}
	return "generated-id", true, nil
}

func (m *MockStore) List(ctx context.Context, namespace, userID string, limit int) ([]store.Entry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, namespace, userID, limit)
	}
	return nil, nil
}

func (m *MockStore) Get(ctx context.Context, namespace, userID, id string) (*store.Entry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, namespace, userID, id)
	}
	return nil, store.ErrNotFound
}

func (m *MockStore) Update(ctx context.Context, namespace, userID, id string, patch map[string]any) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, namespace, userID, id, patch)
	}
	return nil
}

func (m *MockStore) Remove(ctx context.Context, namespace, userID, id string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, namespace, userID, id)
	}
	return nil
}

// MockNotifier records transaction events.
type MockNotifier struct {
	TransactionRecordedFunc func(ctx context.Context, userID string, tx *Transaction) error
	Calls                   int
}

func (m *MockNotifier) TransactionRecorded(ctx context.Context, userID string, tx *Transaction) error {
	m.Calls++
	if m.TransactionRecordedFunc != nil {
		return m.TransactionRecordedFunc(ctx, userID, tx)
	}
	return nil
}

func TestRecordTransaction(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		userID  string
		params  CreateTransactionParams
		wantErr bool
		errType error
	}{
		{
			name:   "Success",
			userID: "user-1",
			params: CreateTransactionParams{
				Amount:   decimal.NewFromInt(50),
				Type:     TypeExpense,
				Category: "food",
				Date:     date,
			},
		},
		{
			name:   "InvalidType",
			userID: "user-1",
			params: CreateTransactionParams{
				Amount:   decimal.NewFromInt(50),
				Type:     "transfer",
				Category: "food",
				Date:     date,
			},
			wantErr: true,
			errType: ErrInvalidType,
		},
		{
			name:   "MissingAmount",
			userID: "user-1",
			params: CreateTransactionParams{
				Type:     TypeExpense,
				Category: "food",
				Date:     date,
			},
			wantErr: true,
			errType: ErrInvalidAmount,
		},
		{
			name:   "MissingCategory",
			userID: "user-1",
			params: CreateTransactionParams{
				Amount: decimal.NewFromInt(50),
				Type:   TypeExpense,
				Date:   date,
			},
			wantErr: true,
			errType: ErrInvalidCategory,
		},
		{
			name:   "MissingDate",
			userID: "user-1",
			params: CreateTransactionParams{
				Amount:   decimal.NewFromInt(50),
				Type:     TypeExpense,
				Category: "food",
			},
			wantErr: true,
			errType: ErrInvalidDate,
		},
		{
			name:   "MissingUserID",
			userID: "",
			params: CreateTransactionParams{
				Amount:   decimal.NewFromInt(50),
				Type:     TypeExpense,
				Category: "food",
				Date:     date,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appended := false
			mockStore := &MockStore{
				AppendFunc: func(ctx context.Context, namespace, userID string, record any) (string, error) {
					appended = true
					if namespace != store.NamespaceTransactions {
						t.Errorf("Append namespace = %q, want %q", namespace, store.NamespaceTransactions)
					}
					return "tx-1", nil
				},
			}
			service := NewService(mockStore, nil, 0)

			tx, err := service.RecordTransaction(ctx, tt.userID, tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("RecordTransaction() expected error, got nil")
				}
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("RecordTransaction() error = %v, want %v", err, tt.errType)
				}
				if appended {
					t.Error("RecordTransaction() persisted a record despite validation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("RecordTransaction() failed: %v", err)
			}
			if tx.ID != "tx-1" {
				t.Errorf("tx.ID = %q, want %q", tx.ID, "tx-1")
			}
			if tx.Source != SourceManual {
				t.Errorf("tx.Source = %q, want %q", tx.Source, SourceManual)
			}
			if tx.ExternalID != "" {
				t.Errorf("tx.ExternalID = %q, want empty for manual entries", tx.ExternalID)
			}
		})
	}
}

func TestRecordTransaction_EmitsEvent(t *testing.T) {
	ctx := context.Background()
	notifier := &MockNotifier{}
	service := NewService(&MockStore{}, notifier, 0)

	_, err := service.RecordTransaction(ctx, "user-1", CreateTransactionParams{
		Amount:   decimal.NewFromInt(25),
		Type:     TypeIncome,
		Category: "salary",
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RecordTransaction() failed: %v", err)
	}
	if notifier.Calls != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.Calls)
	}
}

func TestRecordTransaction_NotifierErrorIgnored(t *testing.T) {
	ctx := context.Background()
	notifier := &MockNotifier{
		TransactionRecordedFunc: func(ctx context.Context, userID string, tx *Transaction) error {
			return errors.New("delivery unavailable")
		},
	}
	service := NewService(&MockStore{}, notifier, 0)

	tx, err := service.RecordTransaction(ctx, "user-1", CreateTransactionParams{
		Amount:   decimal.NewFromInt(25),
		Type:     TypeExpense,
		Category: "food",
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RecordTransaction() failed despite notifier error: %v", err)
	}
	if tx == nil {
		t.Fatal("RecordTransaction() returned nil transaction")
	}
}

func TestGetTransaction_NotFound(t *testing.T) {
	service := NewService(&MockStore{}, nil, 0)

	_, err := service.GetTransaction(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("GetTransaction() error = %v, want ErrTransactionNotFound", err)
	}
}

func TestUpdateTransaction_PatchesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	var gotPatch map[string]any
	mockStore := &MockStore{
		UpdateFunc: func(ctx context.Context, namespace, userID, id string, patch map[string]any) error {
			gotPatch = patch
			return nil
		},
	}
	service := NewService(mockStore, nil, 0)

	category := "groceries"
	err := service.UpdateTransaction(ctx, "user-1", "tx-1", UpdateTransactionParams{Category: &category})
	if err != nil {
		t.Fatalf("UpdateTransaction() failed: %v", err)
	}

	if len(gotPatch) != 1 {
		t.Fatalf("patch has %d fields, want 1: %v", len(gotPatch), gotPatch)
	}
	if gotPatch["category"] != "groceries" {
		t.Errorf("patch[category] = %v, want %q", gotPatch["category"], "groceries")
	}
	if _, ok := gotPatch["externalId"]; ok {
		t.Error("patch touches externalId, which must never change")
	}
}

func TestUpdateTransaction_InvalidType(t *testing.T) {
	service := NewService(&MockStore{}, nil, 0)

	badType := "transfer"
	err := service.UpdateTransaction(context.Background(), "user-1", "tx-1", UpdateTransactionParams{Type: &badType})
	if !errors.Is(err, ErrInvalidType) {
		t.Errorf("UpdateTransaction() error = %v, want ErrInvalidType", err)
	}
}

func TestUpdateTransaction_NotFound(t *testing.T) {
	mockStore := &MockStore{
		UpdateFunc: func(ctx context.Context, namespace, userID, id string, patch map[string]any) error {
			return store.ErrNotFound
		},
	}
	service := NewService(mockStore, nil, 0)

	amount := decimal.NewFromInt(10)
	err := service.UpdateTransaction(context.Background(), "user-1", "missing", UpdateTransactionParams{Amount: &amount})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("UpdateTransaction() error = %v, want ErrTransactionNotFound", err)
	}
}

func TestDeleteTransaction_NotFound(t *testing.T) {
	mockStore := &MockStore{
		RemoveFunc: func(ctx context.Context, namespace, userID, id string) error {
			return store.ErrNotFound
		},
	}
	service := NewService(mockStore, nil, 0)

	err := service.DeleteTransaction(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("DeleteTransaction() error = %v, want ErrTransactionNotFound", err)
	}
}

func TestListTransactions_Filter(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	service := NewService(mem, nil, 0)

	seed := []struct {
		amount   int64
		txType   string
		category string
		date     time.Time
	}{
		{100, TypeExpense, "food", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{200, TypeExpense, "transport", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{300, TypeIncome, "salary", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, s := range seed {
		_, err := service.RecordTransaction(ctx, "user-1", CreateTransactionParams{
			Amount:   decimal.NewFromInt(s.amount),
			Type:     s.txType,
			Category: s.category,
			Date:     s.date,
		})
		if err != nil {
			t.Fatalf("RecordTransaction() failed: %v", err)
		}
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	got, err := service.ListTransactions(ctx, "user-1", Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("ListTransactions() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTransactions() returned %d transactions, want 2", len(got))
	}

	got, err = service.ListTransactions(ctx, "user-1", Filter{Category: "food"})
	if err != nil {
		t.Fatalf("ListTransactions() failed: %v", err)
	}
	if len(got) != 1 || got[0].Category != "food" {
		t.Errorf("ListTransactions(category=food) = %d results, want exactly the food entry", len(got))
	}

	got, err = service.ListTransactions(ctx, "user-1", Filter{Limit: 1})
	if err != nil {
		t.Fatalf("ListTransactions() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ListTransactions(limit=1) returned %d transactions, want 1", len(got))
	}
}
