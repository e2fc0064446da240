package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"frugal/internal/store"
)

const defaultListLimit = 50

// Dispatcher persists notifications and fans delivery out across the
// registered channels. Channel failures are captured per attempt and never
// surfaced to the caller; only a failure to persist the record itself fails
// a Dispatch call.
type Dispatcher struct {
	store     store.Store
	profiles  ProfileStore
	messenger Messenger
	mailer    Mailer
	now       func() time.Time
}

// NewDispatcher creates a notification dispatcher. profiles, messenger, and
// mailer may each be nil, disabling the corresponding delivery channel.
func NewDispatcher(st store.Store, profiles ProfileStore, messenger Messenger, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		store:     st,
		profiles:  profiles,
		messenger: messenger,
		mailer:    mailer,
		now:       time.Now,
	}
}

// deliveryResult is one delivery attempt's captured outcome.
type deliveryResult struct {
	channel string
	target  string
	err     error
}

// Dispatch persists a notification record for the event and then attempts
// delivery on every channel. The record must be durable before any delivery
// starts; delivery outcomes never roll it back.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, event Event) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	if err := event.Validate(); err != nil {
		return "", err
	}

	record := &Notification{
		UserID:    userID,
		Type:      event.Type,
		Title:     event.Title,
		Body:      event.Body,
		Payload:   event.Payload,
		Read:      false,
		CreatedAt: d.now(),
	}

	id, err := d.store.Append(ctx, store.NamespaceNotifications, userID, record)
	if err != nil {
		return "", fmt.Errorf("failed to persist notification: %w", err)
	}

	for _, result := range d.deliver(ctx, userID, event) {
		if result.err != nil {
			log.Printf("User %s: %s delivery to %s failed: %v", userID, result.channel, result.target, result.err)
		}
	}

	return id, nil
}

// deliver runs every channel attempt as an independent unit of work and
// collects the captured outcomes.
func (d *Dispatcher) deliver(ctx context.Context, userID string, event Event) []deliveryResult {
	tokens := d.pushTokens(ctx, userID)
	email := d.emailAddress(ctx, userID)

	results := make([]deliveryResult, len(tokens)+1)
	var wg sync.WaitGroup

	for i, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = deliveryResult{
				channel: "push",
				target:  token,
				err:     d.messenger.Send(ctx, token, event.Title, event.Body, event.Data),
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		last := &results[len(results)-1]
		last.channel = "email"
		if email == "" || d.mailer == nil {
			return
		}
		last.target = email
		last.err = d.mailer.Send(ctx, email, event.Title, fmt.Sprintf("<p>%s</p>", event.Body))
	}()

	wg.Wait()
	return results
}

// pushTokens loads and deduplicates the user's device tokens. A profile
// lookup failure means zero push targets, not a dispatch failure.
func (d *Dispatcher) pushTokens(ctx context.Context, userID string) []string {
	if d.profiles == nil || d.messenger == nil {
		return nil
	}
	tokens, err := d.profiles.PushTokens(ctx, userID)
	if err != nil {
		log.Printf("User %s: failed to load push tokens: %v", userID, err)
		return nil
	}

	seen := make(map[string]struct{}, len(tokens))
	unique := tokens[:0]
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}

func (d *Dispatcher) emailAddress(ctx context.Context, userID string) string {
	if d.profiles == nil || d.mailer == nil {
		return ""
	}
	email, err := d.profiles.EmailAddress(ctx, userID)
	if err != nil {
		log.Printf("User %s: failed to load email address: %v", userID, err)
		return ""
	}
	return email
}

// List returns the user's notifications, most recent first.
func (d *Dispatcher) List(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, err := d.store.List(ctx, store.NamespaceNotifications, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	notifications := make([]*Notification, 0, len(entries))
	for _, entry := range entries {
		var record Notification
		if err := entry.Decode(&record); err != nil {
			log.Printf("User %s: skipping undecodable notification %s: %v", userID, entry.ID, err)
			continue
		}
		record.ID = entry.ID
		notifications = append(notifications, &record)
	}
	return notifications, nil
}

// MarkRead marks a notification as read. Marking an already-read
// notification succeeds silently.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, notificationID string) error {
	entry, err := d.store.Get(ctx, store.NamespaceNotifications, userID, notificationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to load notification: %w", err)
	}

	var record Notification
	if err := entry.Decode(&record); err != nil {
		return fmt.Errorf("failed to decode notification %s: %w", notificationID, err)
	}
	if record.Read {
		return nil
	}

	patch := map[string]any{
		"read":   true,
		"readAt": d.now().Format(time.RFC3339Nano),
	}
	if err := d.store.Update(ctx, store.NamespaceNotifications, userID, notificationID, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// ClearAll deletes every notification record for the user. A partial failure
// is reported as a PartialError listing what could not be removed.
func (d *Dispatcher) ClearAll(ctx context.Context, userID string) error {
	entries, err := d.store.List(ctx, store.NamespaceNotifications, userID, 0)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	partial := &PartialError{Op: "clear notifications", Total: len(entries)}
	for _, entry := range entries {
		if err := d.store.Remove(ctx, store.NamespaceNotifications, userID, entry.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Already gone; counts as removed.
				partial.Removed++
				continue
			}
			partial.Errors = append(partial.Errors, fmt.Sprintf("%s: %v", entry.ID, err))
			continue
		}
		partial.Removed++
	}

	if len(partial.Errors) > 0 {
		return partial
	}

	log.Printf("User %s: cleared %d notifications", userID, partial.Removed)
	return nil
}
