package firebase

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"
)

// Messenger implements notification.Messenger using Firebase Cloud
// Messaging. The dispatcher sends per token, so invalid tokens fail their
// own attempt without touching sibling deliveries.
type Messenger struct {
	client *messaging.Client
}

// NewMessenger creates an FCM push messenger.
func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client.messaging}
}

// Send sends a push notification to a single device token.
func (m *Messenger) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := m.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			log.Printf("Invalid FCM token %s: %v", token, err)
			return fmt.Errorf("invalid token: %w", err)
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}
