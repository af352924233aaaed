package service

import (
	"context"
	"fmt"

	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/webhook"
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
)

// ListAlerts возвращает копии всех алертов
func (s *appService) ListAlerts(ctx context.Context) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Alert, len(s.state.Alerts))
	for i, a := range s.state.Alerts {
		out[i] = *a
	}
	return out
}

// CreateAlert фиксирует отправленный черновик мастера: добавляет алерт,
// уведомление "created", пересчитывает достижения и сохраняет состояние
func (s *appService) CreateAlert(ctx context.Context, session models.Session, draft wizard.Draft) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "app",
		"method":   "CreateAlert",
		"category": draft.Category,
		"user":     session.Name,
	})
	log.Info("Attempting to create a new alert")

	if !s.catalog.HasCategory(draft.Category) {
		log.Warn("Rejected alert with unknown category")
		return nil, wizard.ErrUnknownCategory
	}

	s.mu.Lock()
	now := s.now()
	alert := wizard.BuildAlert(draft, s.ids.next(now), session.Name, now)
	s.state.Alerts = append(s.state.Alerts, alert)
	s.state.PrependNotification(&models.Notification{
		ID:          s.ids.next(now),
		Kind:        models.NotificationCreated,
		Title:       "Alerta Criado!",
		Description: fmt.Sprintf("%s reportado com sucesso", s.catalog.CategoryLabel(alert.Category)),
		CreatedAt:   now,
	})
	events := []webhook.Event{webhook.NewEvent(webhook.EventAlertCreated, session.Name, now).WithAlert(alert)}
	events = append(events, s.evaluate(session)...)
	err := s.persist(ctx)
	created := *alert
	s.mu.Unlock()

	s.publish(ctx, events)
	log.WithField("alert_id", created.ID).Info("Alert created successfully")
	return &created, err
}

// DeleteAlert удаляет алерт. Только для администратора и только после
// явного подтверждения.
func (s *appService) DeleteAlert(ctx context.Context, session models.Session, id int64, confirmed bool) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "app",
		"method":   "DeleteAlert",
		"alert_id": id,
		"user":     session.Name,
	})

	if !session.IsAdmin() {
		log.Warn("Non-admin attempted to remove an alert")
		return ErrForbidden
	}

	s.mu.Lock()
	alert, idx := s.state.FindAlert(id)
	if alert == nil {
		s.mu.Unlock()
		log.Warn("Attempted to remove a non-existent alert")
		return ErrAlertNotFound
	}
	if !confirmed {
		s.mu.Unlock()
		return ErrConfirmationRequired
	}

	now := s.now()
	s.state.Alerts = append(s.state.Alerts[:idx:idx], s.state.Alerts[idx+1:]...)
	s.state.PrependNotification(&models.Notification{
		ID:          s.ids.next(now),
		Kind:        models.NotificationRemoved,
		Title:       "Alerta Removido",
		Description: fmt.Sprintf("%s em %s", s.catalog.CategoryLabel(alert.Category), alert.Location),
		CreatedAt:   now,
	})
	events := []webhook.Event{webhook.NewEvent(webhook.EventAlertRemoved, session.Name, now).WithAlert(alert)}
	events = append(events, s.evaluate(session)...)
	err := s.persist(ctx)
	s.mu.Unlock()

	s.publish(ctx, events)
	log.Info("Alert removed successfully")
	return err
}

// Categories возвращает каталог типов алертов
func (s *appService) Categories() []models.Category {
	out := make([]models.Category, len(s.catalog.Categories))
	copy(out, s.catalog.Categories)
	return out
}
