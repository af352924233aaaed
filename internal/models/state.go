package models

const (
	DefaultTheme    = "dark"
	DefaultMapStyle = "dark"
)

// Settings - пользовательские переключатели
type Settings struct {
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	SoundEnabled         bool   `json:"soundEnabled"`
	VibrationEnabled     bool   `json:"vibrationEnabled"`
	NotificationRadiusKm int    `json:"notificationRadius"`
	MapStyle             string `json:"mapStyle"`
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: true,
		SoundEnabled:         true,
		VibrationEnabled:     true,
		NotificationRadiusKm: 5,
		MapStyle:             DefaultMapStyle,
	}
}

// AppState - полное состояние приложения, которое сохраняется целиком
type AppState struct {
	Alerts        []*Alert
	Notifications []*Notification // новые в начале
	Unlocked      []string
	Theme         string
	Premium       bool
	Settings      Settings
	UsedSearch    bool
}

// NewAppState возвращает пустое состояние со значениями по умолчанию
func NewAppState() *AppState {
	return &AppState{
		Alerts:        make([]*Alert, 0),
		Notifications: make([]*Notification, 0),
		Unlocked:      make([]string, 0),
		Theme:         DefaultTheme,
		Settings:      DefaultSettings(),
	}
}

// IsUnlocked проверяет наличие достижения в разблокированном наборе
func (s *AppState) IsUnlocked(id string) bool {
	for _, u := range s.Unlocked {
		if u == id {
			return true
		}
	}
	return false
}

// FindAlert ищет алерт по id
func (s *AppState) FindAlert(id int64) (*Alert, int) {
	for i, a := range s.Alerts {
		if a.ID == id {
			return a, i
		}
	}
	return nil, -1
}

// FindNotification ищет уведомление по id
func (s *AppState) FindNotification(id int64) (*Notification, int) {
	for i, n := range s.Notifications {
		if n.ID == id {
			return n, i
		}
	}
	return nil, -1
}

// PrependNotification добавляет уведомление в начало списка
func (s *AppState) PrependNotification(n *Notification) {
	s.Notifications = append([]*Notification{n}, s.Notifications...)
}
