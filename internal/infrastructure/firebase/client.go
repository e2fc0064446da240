// Package firebase provides the Firebase-backed infrastructure: the Realtime
// Database implementation of the store facade, the FCM push messenger, and
// the profile reader. All handles are constructed once and injected; there
// are no package-level singletons.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Client bundles the initialized Firebase service handles.
type Client struct {
	db        *db.Client
	messaging *messaging.Client
}

// NewClient initializes a Firebase app and its database and messaging
// clients.
func NewClient(ctx context.Context, credentialsFile, databaseURL string) (*Client, error) {
	conf := &firebase.Config{DatabaseURL: databaseURL}

	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase database client: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Client{db: dbClient, messaging: msgClient}, nil
}
