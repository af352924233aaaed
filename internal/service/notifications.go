package service

import (
	"context"

	"github.com/shenikar/alertabh/internal/models"
)

// NotificationView - уведомление с относительной подписью времени
type NotificationView struct {
	models.Notification
	Time string `json:"time"`
}

// ListNotifications возвращает уведомления, новые первыми
func (s *appService) ListNotifications(ctx context.Context) []NotificationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]NotificationView, len(s.state.Notifications))
	for i, n := range s.state.Notifications {
		out[i] = NotificationView{Notification: *n, Time: n.RelativeTime(now)}
	}
	return out
}

// MarkNotificationRead отмечает уведомление прочитанным
func (s *appService) MarkNotificationRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.state.FindNotification(id)
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.Read {
		return nil
	}
	n.Read = true
	return s.persist(ctx)
}

// MarkAllNotificationsRead отмечает все уведомления прочитанными
func (s *appService) MarkAllNotificationsRead(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, n := range s.state.Notifications {
		if !n.Read {
			n.Read = true
			changed = true
		}
	}
	return s.persistIfChanged(ctx, changed)
}

// DeleteNotification удаляет уведомление
func (s *appService) DeleteNotification(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, idx := s.state.FindNotification(id)
	if n == nil {
		return ErrNotificationNotFound
	}
	s.state.Notifications = append(s.state.Notifications[:idx:idx], s.state.Notifications[idx+1:]...)
	return s.persist(ctx)
}
