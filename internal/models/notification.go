package models

import (
	"fmt"
	"time"
)

// NotificationKind - тип уведомления
type NotificationKind string

const (
	NotificationCreated     NotificationKind = "created"
	NotificationRemoved     NotificationKind = "removed"
	NotificationFuel        NotificationKind = "fuel"
	NotificationAchievement NotificationKind = "achievement"
	NotificationSearch      NotificationKind = "search"
	NotificationOther       NotificationKind = "other"
)

// Notification - запись во "входящих" пользователя
type Notification struct {
	ID          int64            `json:"id"`
	Kind        NotificationKind `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"desc"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// RelativeTime возвращает подпись вида "Agora", "há 5 min"
func (n *Notification) RelativeTime(now time.Time) string {
	return RelativeLabel(n.CreatedAt, now)
}

// RelativeLabel строит относительную подпись времени
func RelativeLabel(at, now time.Time) string {
	if at.IsZero() {
		return "Agora"
	}
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "Agora"
	case d < time.Hour:
		return fmt.Sprintf("há %d min", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("há %d h", int(d/time.Hour))
	default:
		return fmt.Sprintf("há %d d", int(d/(24*time.Hour)))
	}
}
