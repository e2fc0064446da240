package notification

import "context"

// Messenger sends a push notification to a single device token.
// Implemented by the Firebase FCM client in the infrastructure layer.
type Messenger interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Mailer sends an HTML email to a single address.
type Mailer interface {
	Send(ctx context.Context, address, subject, html string) error
}

// ProfileStore exposes the delivery endpoints of a user's profile. The
// profile itself is owned by an external collaborator.
type ProfileStore interface {
	PushTokens(ctx context.Context, userID string) ([]string, error)
	EmailAddress(ctx context.Context, userID string) (string, error)
}
