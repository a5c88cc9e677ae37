package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/google/uuid"
)

// Store persists notifications for the feed endpoint.
type Store interface {
	SaveNotification(ctx context.Context, n domain.Notification) error
	// ListNotifications returns the newest notifications addressed to id, newest first.
	ListNotifications(ctx context.Context, id domain.Identity, limit int) ([]domain.Notification, error)
}

// Publisher fans a stored notification out to live subscribers, possibly across instances.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Dispatcher stores a notification and then publishes it.
type Dispatcher struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

func NewDispatcher(store Store, publisher Publisher) *Dispatcher {
	return &Dispatcher{store: store, publisher: publisher, now: time.Now}
}

func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) error {
	if n.Audience.ToUser == nil && n.Audience.ToRole == nil {
		return fmt.Errorf("notification %q has no audience", n.Title)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}
	if d.store != nil {
		if err := d.store.SaveNotification(ctx, n); err != nil {
			return fmt.Errorf("save notification: %w", err)
		}
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, n); err != nil {
			return fmt.Errorf("publish notification: %w", err)
		}
	}
	return nil
}

// Feed lists the caller's notifications.
func (d *Dispatcher) Feed(ctx context.Context, id domain.Identity, limit int) ([]domain.Notification, error) {
	if d.store == nil {
		return []domain.Notification{}, nil
	}
	return d.store.ListNotifications(ctx, id, limit)
}
