package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetTransactions(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"transactions": []map[string]any{
				{
					"transaction_id": "ext-1",
					"amount":         12.34,
					"merchant_name":  "Grocer",
					"date":           "2024-01-15",
					"personal_finance_category": map[string]string{
						"primary": "FOOD_AND_DRINK",
					},
				},
			},
			"total_transactions": 1,
		})
	}))
	defer server.Close()

	client := NewClient("client-id", "secret", server.URL)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	transactions, err := client.GetTransactions(context.Background(), "access-token", start, end)
	if err != nil {
		t.Fatalf("GetTransactions() failed: %v", err)
	}

	if gotPath != transactionsPath {
		t.Errorf("request path = %q, want %q", gotPath, transactionsPath)
	}
	if gotBody["access_token"] != "access-token" {
		t.Errorf("request access_token = %v, want %q", gotBody["access_token"], "access-token")
	}
	if gotBody["start_date"] != "2024-01-01" || gotBody["end_date"] != "2024-01-31" {
		t.Errorf("request window = %v..%v, want 2024-01-01..2024-01-31", gotBody["start_date"], gotBody["end_date"])
	}

	if len(transactions) != 1 {
		t.Fatalf("GetTransactions() returned %d transactions, want 1", len(transactions))
	}
	tx := transactions[0]
	if tx.TransactionID != "ext-1" {
		t.Errorf("TransactionID = %q, want %q", tx.TransactionID, "ext-1")
	}
	if tx.Merchant() != "Grocer" {
		t.Errorf("Merchant() = %q, want %q", tx.Merchant(), "Grocer")
	}
	if tx.PrimaryCategory() != "FOOD_AND_DRINK" {
		t.Errorf("PrimaryCategory() = %q, want %q", tx.PrimaryCategory(), "FOOD_AND_DRINK")
	}
	date, err := tx.GetDate()
	if err != nil {
		t.Fatalf("GetDate() failed: %v", err)
	}
	if !date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GetDate() = %v, want 2024-01-15", date)
	}
}

func TestPost_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"link_token": "link-1"})
	}))
	defer server.Close()

	client := NewClient("client-id", "secret", server.URL)
	token, err := client.CreateLinkToken(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreateLinkToken() failed after retries: %v", err)
	}
	if token != "link-1" {
		t.Errorf("token = %q, want %q", token, "link-1")
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3 (two retries)", attempts)
	}
}

func TestPost_TerminalFailureNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code":    "INVALID_PUBLIC_TOKEN",
			"error_message": "the public token is expired",
		})
	}))
	defer server.Close()

	client := NewClient("client-id", "secret", server.URL)
	_, err := client.ExchangePublicToken(context.Background(), "public-token")
	if err == nil {
		t.Fatal("ExchangePublicToken() expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("server saw %d attempts, want 1 (4xx is terminal)", attempts)
	}
	if IsRetryable(err) {
		t.Error("IsRetryable() = true for a 400 response")
	}
}

func TestPost_RetryBudgetExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("client-id", "secret", server.URL)
	_, err := client.CreateLinkToken(context.Background(), "user-1")
	if err == nil {
		t.Fatal("CreateLinkToken() expected error, got nil")
	}
	if attempts != maxRetries+1 {
		t.Errorf("server saw %d attempts, want %d", attempts, maxRetries+1)
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false for a 503 response")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		retryable bool
		auth      bool
	}{
		{name: "Network", err: &Error{Message: "connection refused", transient: true}, retryable: true},
		{name: "ServerError", err: &Error{StatusCode: 500}, retryable: true},
		{name: "RateLimited", err: &Error{StatusCode: 429}, retryable: true},
		{name: "BadRequest", err: &Error{StatusCode: 400}},
		{name: "Unauthorized", err: &Error{StatusCode: 401}, auth: true},
		{name: "Forbidden", err: &Error{StatusCode: 403}, auth: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.auth)
			}
		})
	}
}

func TestErrorClassification_AuthErrorsAreTerminal(t *testing.T) {
	err := &Error{StatusCode: 401, Code: "ITEM_LOGIN_REQUIRED"}
	if IsRetryable(err) {
		t.Error("auth error classified retryable; it must stay terminal until re-link")
	}
}
