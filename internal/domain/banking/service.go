package banking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"frugal/internal/infrastructure/plaid"
	"frugal/internal/store"
)

// Service contains the business logic for linked-account management.
type Service struct {
	store  store.Store
	client plaid.ClientInterface
	now    func() time.Time
}

// NewService creates a banking service.
func NewService(st store.Store, client plaid.ClientInterface) *Service {
	return &Service{
		store:  st,
		client: client,
		now:    time.Now,
	}
}

// CreateLinkToken starts the bank connection flow for a user.
func (s *Service) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	return s.client.CreateLinkToken(ctx, userID)
}

// ExchangePublicToken completes the connection flow: it exchanges the public
// token at the aggregator and persists the resulting linked account. The
// access secret is stored but redacted in the returned account.
func (s *Service) ExchangePublicToken(ctx context.Context, userID, publicToken string) (*LinkedAccount, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if publicToken == "" {
		return nil, errors.New("public token is required")
	}

	exchange, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect bank account: %w", err)
	}

	account := &LinkedAccount{
		UserID:          userID,
		ExternalItemID:  exchange.ItemID,
		AccessSecretRef: exchange.AccessToken,
		CreatedAt:       s.now(),
	}

	id, err := s.store.Append(ctx, store.NamespaceAccounts, userID, account)
	if err != nil {
		return nil, fmt.Errorf("failed to save linked account: %w", err)
	}
	account.ID = id

	log.Printf("User %s: linked bank item %s as account %s", userID, exchange.ItemID, id)
	return account.Redacted(), nil
}

// ListAccounts returns the user's linked accounts with secrets redacted.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]*LinkedAccount, error) {
	accounts, err := s.loadAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	redacted := make([]*LinkedAccount, len(accounts))
	for i, account := range accounts {
		redacted[i] = account.Redacted()
	}
	return redacted, nil
}

// DisconnectAccount removes a linked account. Transactions already ingested
// from it are retained in the ledger.
func (s *Service) DisconnectAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.store.Get(ctx, store.NamespaceAccounts, userID, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to load linked account: %w", err)
	}

	if err := s.store.Remove(ctx, store.NamespaceAccounts, userID, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to remove linked account: %w", err)
	}

	log.Printf("User %s: disconnected account %s", userID, accountID)
	return nil
}

// loadAccounts returns the user's linked accounts with secrets intact.
// Internal use only.
func (s *Service) loadAccounts(ctx context.Context, userID string) ([]*LinkedAccount, error) {
	entries, err := s.store.List(ctx, store.NamespaceAccounts, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}

	accounts := make([]*LinkedAccount, 0, len(entries))
	for _, entry := range entries {
		var account LinkedAccount
		if err := entry.Decode(&account); err != nil {
			log.Printf("User %s: skipping undecodable account %s: %v", userID, entry.ID, err)
			continue
		}
		account.ID = entry.ID
		accounts = append(accounts, &account)
	}
	return accounts, nil
}
