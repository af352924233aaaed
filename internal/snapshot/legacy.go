package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shenikar/alertabh/internal/models"
)

// legacyCategories - прежние id типов алертов
var legacyCategories = map[string]string{
	"acidente":         "accident",
	"congestionamento": "traffic",
	"obra":             "roadwork",
}

func canonicalCategory(id string) string {
	if c, ok := legacyCategories[id]; ok {
		return c
	}
	return id
}

type legacyNotification struct {
	models.Notification
	Time string `json:"time"`
}

type legacyBlob struct {
	Alerts               []*models.Alert      `json:"alerts"`
	Notifications        []legacyNotification `json:"notifications"`
	SelectedTheme        string               `json:"selectedTheme"`
	IsPremium            bool                 `json:"isPremium"`
	UnlockedAchievements []string             `json:"unlockedAchievements"`
	Settings             *json.RawMessage     `json:"settings,omitempty"`
	UsedSearch           bool                 `json:"usedSearch,omitempty"`
	Timestamp            string               `json:"timestamp"`
}

// MarshalLegacy сериализует состояние в единый объект резервной копии
func MarshalLegacy(state *models.AppState, now time.Time) ([]byte, error) {
	notifications := make([]legacyNotification, len(state.Notifications))
	for i, n := range state.Notifications {
		notifications[i] = legacyNotification{Notification: *n, Time: n.RelativeTime(now)}
	}
	settings, err := json.Marshal(state.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	raw := json.RawMessage(settings)
	blob := legacyBlob{
		Alerts:               nonNilAlerts(state.Alerts),
		Notifications:        notifications,
		SelectedTheme:        state.Theme,
		IsPremium:            state.Premium,
		UnlockedAchievements: nonNilStrings(state.Unlocked),
		Settings:             &raw,
		UsedSearch:           state.UsedSearch,
		Timestamp:            now.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalLegacy разбирает объект резервной копии. Неизвестные поля
// игнорируются, отсутствующие получают значения по умолчанию.
func UnmarshalLegacy(data []byte) (*models.AppState, error) {
	var blob legacyBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	settings, err := decodeSettings(blob.Settings)
	if err != nil {
		return nil, err
	}
	notifications := make([]*models.Notification, 0, len(blob.Notifications))
	for i := range blob.Notifications {
		n := blob.Notifications[i].Notification
		notifications = append(notifications, &n)
	}
	return &models.AppState{
		Alerts:        normalizeAlerts(blob.Alerts),
		Notifications: normalizeNotifications(notifications),
		Unlocked:      dedupe(blob.UnlockedAchievements),
		Theme:         themeOrDefault(blob.SelectedTheme),
		Premium:       blob.IsPremium,
		Settings:      settings,
		UsedSearch:    blob.UsedSearch,
	}, nil
}
