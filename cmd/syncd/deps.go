package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"frugal/internal/domain/banking"
	"frugal/internal/domain/ledger"
	"frugal/internal/domain/notification"
	"frugal/internal/infrastructure/firebase"
	"frugal/internal/infrastructure/plaid"
	"frugal/internal/infrastructure/smtp"
	"frugal/internal/shared/config"
	"frugal/internal/store"
)

// userLister enumerates users that have records in a namespace. Both store
// backends implement it; the scheduler job provider uses it to fan out sync
// jobs.
type userLister interface {
	UserIDs(ctx context.Context, namespace string) ([]string, error)
}

// Dependencies holds all initialized application components.
type Dependencies struct {
	Store store.Store
	Users userLister

	// Services
	Dispatcher *notification.Dispatcher
	Ledger     *ledger.Service
	Accounts   *banking.Service
	Syncer     *banking.Syncer
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	var (
		st        store.Store
		users     userLister
		profiles  notification.ProfileStore
		messenger notification.Messenger
	)

	switch cfg.Store.Backend {
	case config.StoreBackendFirebase:
		client, err := firebase.NewClient(ctx, cfg.Store.CredentialsFile, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase: %w", err)
		}
		fbStore := firebase.NewStore(client)
		st = fbStore
		users = fbStore
		profiles = firebase.NewProfiles(client)
		messenger = firebase.NewMessenger(client)
		log.Println("Connected to Firebase Realtime Database")
	case config.StoreBackendMemory:
		mem := store.NewMemoryStore()
		st = mem
		users = mem
		log.Println("Using in-memory store (push channel disabled)")
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}

	var mailer notification.Mailer
	if cfg.SMTP.Enabled() {
		mailer = smtp.NewMailer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.SMTP.SenderEmail,
		)
	} else {
		log.Println("SMTP not configured, email channel disabled")
	}

	dispatcher := notification.NewDispatcher(st, profiles, messenger, mailer)

	plaidClient := plaid.NewClient(cfg.Plaid.ClientID, cfg.Plaid.Secret, cfg.Plaid.BaseURL)

	ledgerService := ledger.NewService(st, dispatcher, cfg.Summary.MaxScan)
	accountService := banking.NewService(st, plaidClient)

	policy := banking.DefaultMappingPolicy()
	policy.PositiveIsExpense = cfg.Sync.PositiveIsExpense

	syncer := banking.NewSyncer(accountService, st, plaidClient, dispatcher, policy, banking.SyncerConfig{
		Parallelism: cfg.Sync.Parallelism,
		RunTimeout:  cfg.Sync.RunTimeout,
		FetchWindow: time.Duration(cfg.Sync.FetchWindowDays) * 24 * time.Hour,
	})

	return &Dependencies{
		Store:      st,
		Users:      users,
		Dispatcher: dispatcher,
		Ledger:     ledgerService,
		Accounts:   accountService,
		Syncer:     syncer,
	}, nil
}
