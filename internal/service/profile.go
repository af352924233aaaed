package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/alertabh/internal/achievement"
	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
)

const (
	DefaultZoom = 13
	MinRadiusKm = 1
	MaxRadiusKm = 50
)

// Profile - производные данные профиля
type Profile struct {
	Session models.Session    `json:"user"`
	Stats   achievement.Stats `json:"stats"`
	Premium bool              `json:"isPremium"`
	Theme   string            `json:"selectedTheme"`
}

// AchievementView - запись каталога с признаком разблокировки
type AchievementView struct {
	achievement.Achievement
	Unlocked bool `json:"unlocked"`
}

// ThemeView - тема с признаками доступности
type ThemeView struct {
	models.Theme
	Selected  bool `json:"selected"`
	Available bool `json:"available"`
}

// MapConfig - параметры карты для клиента
type MapConfig struct {
	Style       string          `json:"style"`
	TileURL     string          `json:"tileUrl"`
	Attribution string          `json:"attribution"`
	Center      models.Position `json:"center"`
	Zoom        int             `json:"zoom"`
}

// Profile вычисляет статистику при каждом чтении
func (s *appService) Profile(ctx context.Context, session models.Session) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Profile{
		Session: session,
		Stats:   achievement.Compute(session.Name, s.state.Alerts, s.state.Unlocked),
		Premium: s.state.Premium,
		Theme:   s.state.Theme,
	}
}

// Achievements возвращает каталог с признаками разблокировки
func (s *appService) Achievements(ctx context.Context) []AchievementView {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := achievement.Catalog()
	out := make([]AchievementView, len(all))
	for i, a := range all {
		out[i] = AchievementView{Achievement: a, Unlocked: s.state.IsUnlocked(a.ID)}
	}
	return out
}

// Themes возвращает темы с учетом премиум-доступа
func (s *appService) Themes(ctx context.Context) []ThemeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ThemeView, len(s.catalog.Themes))
	for i, th := range s.catalog.Themes {
		out[i] = ThemeView{
			Theme:     th,
			Selected:  th.ID == s.state.Theme,
			Available: !th.Premium || s.state.Premium,
		}
	}
	return out
}

// SelectTheme меняет тему; премиум-темы требуют премиум
func (s *appService) SelectTheme(ctx context.Context, id string) error {
	theme, err := s.catalog.Theme(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if theme.Premium && !s.state.Premium {
		return ErrPremiumRequired
	}
	if s.state.Theme == theme.ID {
		return nil
	}
	s.state.Theme = theme.ID
	return s.persist(ctx)
}

// PurchasePremium имитирует покупку премиума
func (s *appService) PurchasePremium(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	if s.state.Premium {
		s.mu.Unlock()
		return nil
	}
	s.state.Premium = true
	events := s.evaluate(session)
	err := s.persist(ctx)
	s.mu.Unlock()

	s.publish(ctx, events)
	s.logger.WithFields(logrus.Fields{
		"service": "app",
		"method":  "PurchasePremium",
		"user":    session.Name,
	}).Info("Premium activated")
	return err
}

// Settings возвращает текущие настройки
func (s *appService) Settings(ctx context.Context) models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// UpdateSettings заменяет настройки целиком
func (s *appService) UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	if settings.MapStyle == "" {
		settings.MapStyle = models.DefaultMapStyle
	}
	if _, err := s.catalog.MapStyle(settings.MapStyle); err != nil {
		return models.Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if settings.NotificationRadiusKm < MinRadiusKm || settings.NotificationRadiusKm > MaxRadiusKm {
		return models.Settings{}, fmt.Errorf("%w: notification radius must be between %d and %d km", ErrInvalidSettings, MinRadiusKm, MaxRadiusKm)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Settings = settings
	return settings, s.persist(ctx)
}

// MapConfig возвращает шаблон тайлов для выбранного стиля
func (s *appService) MapConfig(ctx context.Context) (MapConfig, error) {
	s.mu.Lock()
	styleID := s.state.Settings.MapStyle
	s.mu.Unlock()

	style, err := s.catalog.MapStyle(styleID)
	if errors.Is(err, catalog.ErrUnknownMapStyle) {
		style, err = s.catalog.MapStyle(models.DefaultMapStyle)
	}
	if err != nil {
		return MapConfig{}, err
	}
	return MapConfig{
		Style:       style.ID,
		TileURL:     style.TileURL,
		Attribution: style.Attribution,
		Center:      wizard.CityCenter,
		Zoom:        DefaultZoom,
	}, nil
}
