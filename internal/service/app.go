package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shenikar/alertabh/internal/achievement"
	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/geocoding"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/snapshot"
	"github.com/shenikar/alertabh/internal/webhook"
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
)

// StateRepository определяет контракт хранилища записей состояния
type StateRepository interface {
	LoadRecords(ctx context.Context, key string) ([]snapshot.Record, error)
	SaveRecords(ctx context.Context, key string, records []snapshot.Record) error
}

// Geocoder ищет координаты по адресу
type Geocoder interface {
	Search(ctx context.Context, query string) ([]geocoding.Candidate, error)
}

// AppService определяет контракт контейнера состояния приложения.
// Все изменения проходят через его методы и сериализуются.
type AppService interface {
	Load(ctx context.Context) error
	Backup(ctx context.Context) error
	Restore(ctx context.Context, session models.Session) error
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, session models.Session, data []byte) error

	ListAlerts(ctx context.Context) []models.Alert
	CreateAlert(ctx context.Context, session models.Session, draft wizard.Draft) (*models.Alert, error)
	DeleteAlert(ctx context.Context, session models.Session, id int64, confirmed bool) error

	ListNotifications(ctx context.Context) []NotificationView
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error

	Profile(ctx context.Context, session models.Session) Profile
	Achievements(ctx context.Context) []AchievementView
	Themes(ctx context.Context) []ThemeView
	SelectTheme(ctx context.Context, id string) error
	PurchasePremium(ctx context.Context, session models.Session) error
	Settings(ctx context.Context) models.Settings
	UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
	MapConfig(ctx context.Context) (MapConfig, error)
	Categories() []models.Category

	Search(ctx context.Context, session models.Session, query string) ([]geocoding.Candidate, error)
	Lookup(ctx context.Context, query string) ([]geocoding.Candidate, error)
	RecordSearch(ctx context.Context, session models.Session, chosen geocoding.Candidate) error

	FuelOptions() []models.FuelOption
	QuoteFuel(fuelID string, litres int) (models.FuelQuote, error)
	OrderFuel(ctx context.Context, session models.Session, fuelID string, litres int, confirmed bool) (models.FuelQuote, error)
}

// Options - параметры контейнера состояния
type Options struct {
	StateKey string
	Location *time.Location
}

type appService struct {
	mu    sync.Mutex
	state *models.AppState
	ids   idClock
	// unsaved - последнее изменение не дошло до хранилища
	unsaved bool

	repo      StateRepository
	publisher webhook.Publisher
	geocoder  Geocoder
	catalog   *catalog.Catalog
	logger    *logrus.Logger
	opts      Options
	now       func() time.Time
}

// NewAppService создает контейнер с пустым состоянием
func NewAppService(repo StateRepository, publisher webhook.Publisher, geocoder Geocoder, cat *catalog.Catalog, logger *logrus.Logger, opts Options) AppService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &appService{
		state:     models.NewAppState(),
		repo:      repo,
		publisher: publisher,
		geocoder:  geocoder,
		catalog:   cat,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Load загружает состояние из хранилища. Отсутствие данных не ошибка.
// Пока есть несохраненные изменения, состояние в памяти не заменяется.
func (s *appService) Load(ctx context.Context) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "app",
		"method":  "Load",
	})
	if s.hasUnsaved() {
		log.Warn("Skipping reload, in-memory state has unsaved changes")
		return nil
	}
	records, err := s.repo.LoadRecords(ctx, s.opts.StateKey)
	if err != nil {
		log.WithError(err).Error("Failed to load state records")
		return fmt.Errorf("service: could not load state: %w", err)
	}
	state, err := snapshot.Decode(records)
	if err != nil {
		log.WithError(err).Error("Failed to decode state records")
		return fmt.Errorf("service: could not decode state: %w", err)
	}

	s.mu.Lock()
	if s.unsaved {
		s.mu.Unlock()
		log.Warn("Skipping reload, in-memory state has unsaved changes")
		return nil
	}
	s.replace(state)
	s.mu.Unlock()

	log.WithFields(logrus.Fields{"records": len(records), "alerts": len(state.Alerts)}).Info("State loaded")
	return nil
}

func (s *appService) hasUnsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// Backup явно сохраняет текущее состояние
func (s *appService) Backup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx); err != nil {
		return fmt.Errorf("service: could not back up state: %w", err)
	}
	return nil
}

// Restore заменяет состояние сохраненной копией
func (s *appService) Restore(ctx context.Context, session models.Session) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "app",
		"method":  "Restore",
	})
	records, err := s.repo.LoadRecords(ctx, s.opts.StateKey)
	if err != nil {
		log.WithError(err).Error("Failed to load state records")
		return fmt.Errorf("service: could not restore state: %w", err)
	}
	if len(records) == 0 {
		return ErrNoBackup
	}
	state, err := snapshot.Decode(records)
	if err != nil {
		log.WithError(err).Error("Failed to decode state records")
		return fmt.Errorf("service: could not decode state: %w", err)
	}

	s.mu.Lock()
	s.replace(state)
	events := s.evaluate(session)
	err = s.persistIfChanged(ctx, len(events) > 0)
	s.mu.Unlock()

	s.publish(ctx, events)
	log.WithField("alerts", len(state.Alerts)).Info("State restored")
	return err
}

// Export возвращает резервную копию в формате единого объекта
func (s *appService) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := snapshot.MarshalLegacy(s.state, s.now())
	if err != nil {
		return nil, fmt.Errorf("service: could not export state: %w", err)
	}
	return data, nil
}

// Import заменяет состояние содержимым резервной копии
func (s *appService) Import(ctx context.Context, session models.Session, data []byte) error {
	state, err := snapshot.UnmarshalLegacy(data)
	if err != nil {
		return fmt.Errorf("service: could not import state: %w", err)
	}

	s.mu.Lock()
	s.replace(state)
	events := s.evaluate(session)
	err = s.persist(ctx)
	s.mu.Unlock()

	s.publish(ctx, events)
	s.logger.WithFields(logrus.Fields{
		"service": "app",
		"method":  "Import",
		"alerts":  len(state.Alerts),
	}).Info("State imported")
	return err
}

// replace вызывается под s.mu
func (s *appService) replace(state *models.AppState) {
	s.state = state
	s.unsaved = false
	for _, a := range state.Alerts {
		s.ids.observe(a.ID)
	}
	for _, n := range state.Notifications {
		s.ids.observe(n.ID)
	}
}

// persist вызывается под s.mu. Состояние в памяти при ошибке не меняется.
func (s *appService) persist(ctx context.Context) error {
	records, err := snapshot.Encode(s.state, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode state")
		s.unsaved = true
		return &PersistError{Err: err}
	}
	if err := s.repo.SaveRecords(ctx, s.opts.StateKey, records); err != nil {
		s.logger.WithError(err).Error("Failed to save state")
		s.unsaved = true
		return &PersistError{Err: err}
	}
	s.unsaved = false
	return nil
}

func (s *appService) persistIfChanged(ctx context.Context, changed bool) error {
	if !changed {
		return nil
	}
	return s.persist(ctx)
}

// evaluate разблокирует новые достижения; вызывается под s.mu
func (s *appService) evaluate(session models.Session) []webhook.Event {
	fresh := achievement.Evaluate(achievement.Input{
		Alerts:     s.state.Alerts,
		Premium:    s.state.Premium,
		UsedSearch: s.state.UsedSearch,
		Location:   s.opts.Location,
	}, s.state.Unlocked)

	now := s.now()
	events := make([]webhook.Event, 0, len(fresh))
	for _, a := range fresh {
		if s.state.IsUnlocked(a.ID) {
			continue
		}
		s.state.Unlocked = append(s.state.Unlocked, a.ID)
		s.state.PrependNotification(&models.Notification{
			ID:          s.ids.next(now),
			Kind:        models.NotificationAchievement,
			Title:       "Conquista Desbloqueada!",
			Description: fmt.Sprintf("%s %s (+%d pts)", a.Icon, a.Name, a.Points),
			CreatedAt:   now,
		})
		ev := webhook.NewEvent(webhook.EventAchievementUnlocked, session.Name, now)
		ev.Achievement = a.ID
		events = append(events, ev)

		s.logger.WithFields(logrus.Fields{
			"service":     "app",
			"achievement": a.ID,
		}).Info("Achievement unlocked")
	}
	return events
}

// publish отправляет события вне блокировки; ошибки только логируются
func (s *appService) publish(ctx context.Context, events []webhook.Event) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.WithError(err).WithField("event_type", ev.Type).Warn("Failed to publish event")
		}
	}
}
