package memory

import (
	"context"
	"sync"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

// NotificationStore keeps notifications in insertion order.
type NotificationStore struct {
	mu    sync.RWMutex
	items []domain.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) SaveNotification(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	s.items = append(s.items, n)
	s.mu.Unlock()
	return nil
}

func (s *NotificationStore) ListNotifications(_ context.Context, id domain.Identity, limit int) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Notification, 0)
	for i := len(s.items) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if s.items[i].Audience.Matches(id) {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}
