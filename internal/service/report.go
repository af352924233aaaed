package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/geocoding"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
)

// ReportView - текущее состояние мастера
type ReportView struct {
	Step     wizard.Step  `json:"step"`
	StepName string       `json:"stepName"`
	Draft    wizard.Draft `json:"draft"`
}

// LocationSearch - запрос поиска адреса внутри мастера
type LocationSearch struct {
	Query string
	// Index - какой из найденных вариантов использовать
	Index int
	Skip  bool
}

// ReportService определяет контракт мастера создания алерта.
// У каждого пользователя не больше одного активного мастера.
type ReportService interface {
	Start(ctx context.Context, session models.Session) (ReportView, error)
	Current(ctx context.Context, session models.Session) (ReportView, error)
	RequestLocation(ctx context.Context, session models.Session) (wizard.Token, error)
	ResolveLocation(ctx context.Context, session models.Session, token wizard.Token, fix wizard.Fix) (ReportView, error)
	SearchLocation(ctx context.Context, session models.Session, search LocationSearch) (ReportView, []geocoding.Candidate, error)
	ConfirmLocation(ctx context.Context, session models.Session) (ReportView, error)
	AttachPhoto(ctx context.Context, session models.Session, dataURI string) (ReportView, error)
	SkipPhoto(ctx context.Context, session models.Session) (ReportView, error)
	ChooseCategory(ctx context.Context, session models.Session, category string) (ReportView, error)
	SetDetails(ctx context.Context, session models.Session, details wizard.Details) (ReportView, error)
	Submit(ctx context.Context, session models.Session) (*models.Alert, error)
	Cancel(ctx context.Context, session models.Session) error
}

type reportEntry struct {
	mu     sync.Mutex
	flow   *wizard.Flow
	active bool
}

type reportService struct {
	mu      sync.Mutex
	entries map[string]*reportEntry

	app         AppService
	catalog     *catalog.Catalog
	logger      *logrus.Logger
	submitDelay time.Duration
}

// NewReportService создает сервис мастеров
func NewReportService(app AppService, cat *catalog.Catalog, logger *logrus.Logger, submitDelay time.Duration) ReportService {
	return &reportService{
		entries:     make(map[string]*reportEntry),
		app:         app,
		catalog:     cat,
		logger:      logger,
		submitDelay: submitDelay,
	}
}

// entry возвращает запись пользователя, создавая ее при необходимости.
// Записи не удаляются, чтобы номера токенов геолокации не повторялись.
func (s *reportService) entry(session models.Session) *reportEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[session.Login]
	if !ok {
		e = &reportEntry{flow: wizard.New(s.catalog)}
		s.entries[session.Login] = e
	}
	return e
}

func view(f *wizard.Flow) ReportView {
	return ReportView{Step: f.Step(), StepName: f.Step().String(), Draft: f.Draft()}
}

// withActive выполняет fn над активным мастером пользователя
func (s *reportService) withActive(session models.Session, fn func(f *wizard.Flow) error) (ReportView, error) {
	e := s.entry(session)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ReportView{}, ErrNoActiveReport
	}
	if err := fn(e.flow); err != nil {
		return view(e.flow), err
	}
	return view(e.flow), nil
}

// Start начинает новый мастер с чистым черновиком
func (s *reportService) Start(ctx context.Context, session models.Session) (ReportView, error) {
	e := s.entry(session)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flow.Reset()
	e.active = true
	s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "Start",
		"user":    session.Name,
	}).Info("Report flow started")
	return view(e.flow), nil
}

func (s *reportService) Current(ctx context.Context, session models.Session) (ReportView, error) {
	return s.withActive(session, func(*wizard.Flow) error { return nil })
}

func (s *reportService) RequestLocation(ctx context.Context, session models.Session) (wizard.Token, error) {
	var token wizard.Token
	_, err := s.withActive(session, func(f *wizard.Flow) error {
		var err error
		token, err = f.RequestLocation()
		return err
	})
	return token, err
}

func (s *reportService) ResolveLocation(ctx context.Context, session models.Session, token wizard.Token, fix wizard.Fix) (ReportView, error) {
	v, err := s.withActive(session, func(f *wizard.Flow) error {
		return f.ResolveLocation(token, fix)
	})
	if errors.Is(err, ErrNoActiveReport) {
		// мастер уже закрыт - ответ устройства устарел
		return v, wizard.ErrStaleCallback
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "report",
			"method":  "ResolveLocation",
			"user":    session.Name,
		}).WithError(err).Warn("Location fix rejected")
	}
	return v, err
}

// SearchLocation ищет адрес и подставляет выбранный вариант в черновик.
// Поиск идет без блокировки мастера. Состояние приложения меняется только
// после того, как вариант выбран и мастер его принял.
func (s *reportService) SearchLocation(ctx context.Context, session models.Session, search LocationSearch) (ReportView, []geocoding.Candidate, error) {
	if _, err := s.Current(ctx, session); err != nil {
		return ReportView{}, nil, err
	}
	candidates, err := s.app.Lookup(ctx, search.Query)
	if err != nil {
		return ReportView{}, nil, err
	}
	if search.Index < 0 || search.Index >= len(candidates) {
		return ReportView{}, candidates, ErrCandidateIndex
	}
	c := candidates[search.Index]
	v, err := s.withActive(session, func(f *wizard.Flow) error {
		return f.UseSearchedLocation(models.Position{Latitude: c.Latitude, Longitude: c.Longitude}, c.DisplayName, search.Skip)
	})
	if err != nil {
		return v, candidates, err
	}
	return v, candidates, s.app.RecordSearch(ctx, session, c)
}

func (s *reportService) ConfirmLocation(ctx context.Context, session models.Session) (ReportView, error) {
	return s.withActive(session, func(f *wizard.Flow) error { return f.ConfirmLocation() })
}

func (s *reportService) AttachPhoto(ctx context.Context, session models.Session, dataURI string) (ReportView, error) {
	return s.withActive(session, func(f *wizard.Flow) error { return f.AttachPhoto(dataURI) })
}

func (s *reportService) SkipPhoto(ctx context.Context, session models.Session) (ReportView, error) {
	return s.withActive(session, func(f *wizard.Flow) error { return f.SkipPhoto() })
}

func (s *reportService) ChooseCategory(ctx context.Context, session models.Session, category string) (ReportView, error) {
	return s.withActive(session, func(f *wizard.Flow) error { return f.ChooseCategory(category) })
}

func (s *reportService) SetDetails(ctx context.Context, session models.Session, details wizard.Details) (ReportView, error) {
	return s.withActive(session, func(f *wizard.Flow) error { return f.SetDetails(details) })
}

// Submit создает алерт из черновика, сбрасывает мастер и закрывает его.
// Ошибка сохранения (*PersistError) не отменяет создание алерта.
func (s *reportService) Submit(ctx context.Context, session models.Session) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "Submit",
		"user":    session.Name,
	})

	e := s.entry(session)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return nil, ErrNoActiveReport
	}

	draft, err := e.flow.Submit()
	if err != nil {
		log.WithError(err).Warn("Report submission rejected")
		return nil, err
	}

	if s.submitDelay > 0 {
		t := time.NewTimer(s.submitDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			_ = e.flow.Abort()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	alert, err := s.app.CreateAlert(ctx, session, draft)
	if err != nil && !IsPersistError(err) {
		_ = e.flow.Abort()
		log.WithError(err).Error("Failed to create alert")
		return nil, err
	}

	_ = e.flow.Complete()
	e.active = false
	log.WithField("alert_id", alert.ID).Info("Report submitted")
	return alert, err
}

// Cancel отбрасывает черновик; алерты и уведомления не меняются
func (s *reportService) Cancel(ctx context.Context, session models.Session) error {
	e := s.entry(session)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flow.Cancel()
	e.active = false
	return nil
}
