package postgres

import (
	"context"
	"fmt"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/uptrace/bun"
)

// NotificationStore persists the notification feed.
type NotificationStore struct {
	db *bun.DB
}

func NewNotificationStore(db *bun.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) SaveNotification(ctx context.Context, n domain.Notification) error {
	if _, err := s.db.NewInsert().Model(newNotificationRow(n)).Exec(ctx); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) ListNotifications(ctx context.Context, id domain.Identity, limit int) ([]domain.Notification, error) {
	var rows []notificationRow
	q := s.db.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("to_user = ?", id.UserID).WhereOr("to_role = ?", string(id.Role))
		}).
		Order("created_at DESC", "id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]domain.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
