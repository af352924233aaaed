// Package snapshot сериализует AppState.
//
// Хранилище держит три независимые записи (alerts, notifications, profile),
// у каждой своя версия схемы. Для резервных копий поддерживается
// единый JSON-объект старого формата.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/alertabh/internal/models"
)

// Kind - вид записи
type Kind string

const (
	KindAlerts        Kind = "alerts"
	KindNotifications Kind = "notifications"
	KindProfile       Kind = "profile"
)

// Kinds - все виды записей в порядке сохранения
var Kinds = []Kind{KindAlerts, KindNotifications, KindProfile}

// CurrentVersion - актуальные версии схем.
// profile v1 не содержал settings и usedSearch.
var CurrentVersion = map[Kind]int{
	KindAlerts:        1,
	KindNotifications: 1,
	KindProfile:       2,
}

var (
	ErrUnsupportedVersion = errors.New("snapshot schema version is newer than supported")
	ErrInvalidVersion     = errors.New("snapshot schema version must be at least 1")
	ErrUnknownKind        = errors.New("unknown snapshot record kind")
)

const (
	defaultDuration = 30
)

// Record - одна версионированная запись
type Record struct {
	Kind          Kind            `json:"kind"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type profilePayload struct {
	Unlocked   []string         `json:"unlockedAchievements"`
	Theme      string           `json:"selectedTheme"`
	Premium    bool             `json:"isPremium"`
	Settings   *json.RawMessage `json:"settings,omitempty"`
	UsedSearch bool             `json:"usedSearch"`
}

// Encode разбивает состояние на записи
func Encode(state *models.AppState, now time.Time) ([]Record, error) {
	alerts, err := json.Marshal(nonNilAlerts(state.Alerts))
	if err != nil {
		return nil, fmt.Errorf("marshal alerts: %w", err)
	}
	notifications, err := json.Marshal(nonNilNotifications(state.Notifications))
	if err != nil {
		return nil, fmt.Errorf("marshal notifications: %w", err)
	}
	settings, err := json.Marshal(state.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	raw := json.RawMessage(settings)
	profile, err := json.Marshal(profilePayload{
		Unlocked:   nonNilStrings(state.Unlocked),
		Theme:      state.Theme,
		Premium:    state.Premium,
		Settings:   &raw,
		UsedSearch: state.UsedSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	now = now.UTC()
	return []Record{
		{Kind: KindAlerts, SchemaVersion: CurrentVersion[KindAlerts], Payload: alerts, UpdatedAt: now},
		{Kind: KindNotifications, SchemaVersion: CurrentVersion[KindNotifications], Payload: notifications, UpdatedAt: now},
		{Kind: KindProfile, SchemaVersion: CurrentVersion[KindProfile], Payload: profile, UpdatedAt: now},
	}, nil
}

// Decode собирает состояние из записей. Отсутствующие записи и поля
// заполняются значениями по умолчанию.
func Decode(records []Record) (*models.AppState, error) {
	state := models.NewAppState()
	for _, rec := range records {
		current, ok := CurrentVersion[rec.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
		}
		if rec.SchemaVersion > current {
			return nil, fmt.Errorf("%w: %s v%d", ErrUnsupportedVersion, rec.Kind, rec.SchemaVersion)
		}
		if rec.SchemaVersion < 1 {
			return nil, fmt.Errorf("%w: %s v%d", ErrInvalidVersion, rec.Kind, rec.SchemaVersion)
		}
		if len(rec.Payload) == 0 || string(rec.Payload) == "null" {
			continue
		}
		switch rec.Kind {
		case KindAlerts:
			var alerts []*models.Alert
			if err := json.Unmarshal(rec.Payload, &alerts); err != nil {
				return nil, fmt.Errorf("decode alerts: %w", err)
			}
			state.Alerts = normalizeAlerts(alerts)
		case KindNotifications:
			var notifications []*models.Notification
			if err := json.Unmarshal(rec.Payload, &notifications); err != nil {
				return nil, fmt.Errorf("decode notifications: %w", err)
			}
			state.Notifications = normalizeNotifications(notifications)
		case KindProfile:
			var p profilePayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode profile: %w", err)
			}
			settings, err := decodeSettings(p.Settings)
			if err != nil {
				return nil, err
			}
			state.Unlocked = dedupe(p.Unlocked)
			state.Theme = themeOrDefault(p.Theme)
			state.Premium = p.Premium
			state.Settings = settings
			state.UsedSearch = p.UsedSearch
		}
	}
	return state, nil
}

func decodeSettings(raw *json.RawMessage) (models.Settings, error) {
	settings := models.DefaultSettings()
	if raw == nil || len(*raw) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(*raw, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if settings.MapStyle == "" {
		settings.MapStyle = models.DefaultMapStyle
	}
	if settings.NotificationRadiusKm <= 0 {
		settings.NotificationRadiusKm = models.DefaultSettings().NotificationRadiusKm
	}
	return settings, nil
}

func normalizeAlerts(in []*models.Alert) []*models.Alert {
	out := make([]*models.Alert, 0, len(in))
	for _, a := range in {
		if a == nil {
			continue
		}
		if !a.Severity.Valid() {
			a.Severity = models.SeverityMedium
		}
		if a.DurationMinutes <= 0 {
			a.DurationMinutes = defaultDuration
		}
		// старые копии не хранили createdAt; id - время создания в мс
		if a.CreatedAt.IsZero() && a.ID > 0 {
			a.CreatedAt = time.UnixMilli(a.ID).UTC()
		}
		a.Category = canonicalCategory(a.Category)
		out = append(out, a)
	}
	return out
}

func normalizeNotifications(in []*models.Notification) []*models.Notification {
	out := make([]*models.Notification, 0, len(in))
	for _, n := range in {
		if n == nil {
			continue
		}
		if n.Kind == "" {
			n.Kind = models.NotificationOther
		}
		out = append(out, n)
	}
	return out
}

func themeOrDefault(theme string) string {
	if theme == "" {
		return models.DefaultTheme
	}
	return theme
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nonNilAlerts(in []*models.Alert) []*models.Alert {
	if in == nil {
		return []*models.Alert{}
	}
	return in
}

func nonNilNotifications(in []*models.Notification) []*models.Notification {
	if in == nil {
		return []*models.Notification{}
	}
	return in
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
