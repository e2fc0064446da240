package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/db"
)

// Profiles implements notification.ProfileStore by reading delivery
// endpoints from the users node. Profile management itself is owned by the
// auth/profile services, not this package.
type Profiles struct {
	client *db.Client
}

// NewProfiles creates an RTDB-backed profile reader.
func NewProfiles(client *Client) *Profiles {
	return &Profiles{client: client.db}
}

type profileRecord struct {
	Email     string   `json:"email"`
	FCMTokens []string `json:"fcmTokens"`
}

func (p *Profiles) load(ctx context.Context, userID string) (*profileRecord, error) {
	var record profileRecord
	if err := p.client.NewRef("users/"+userID).Get(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}
	return &record, nil
}

// PushTokens returns the user's registered FCM tokens.
func (p *Profiles) PushTokens(ctx context.Context, userID string) ([]string, error) {
	record, err := p.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return record.FCMTokens, nil
}

// EmailAddress returns the user's email address, "" when unset.
func (p *Profiles) EmailAddress(ctx context.Context, userID string) (string, error) {
	record, err := p.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return record.Email, nil
}
