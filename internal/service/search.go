package service

import (
	"context"
	"fmt"

	"github.com/shenikar/alertabh/internal/geocoding"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/sirupsen/logrus"
)

// Search ищет адрес. При успехе отмечает использование поиска, добавляет
// уведомление и пересчитывает достижения; при ошибке состояние не меняется.
func (s *appService) Search(ctx context.Context, session models.Session, query string) ([]geocoding.Candidate, error) {
	candidates, err := s.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	return candidates, s.RecordSearch(ctx, session, candidates[0])
}

// Lookup только обращается к геокодеру, состояние не меняет
func (s *appService) Lookup(ctx context.Context, query string) ([]geocoding.Candidate, error) {
	candidates, err := s.geocoder.Search(ctx, query)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "app",
			"method":  "Lookup",
		}).WithError(err).Warn("Address search failed")
		return nil, fmt.Errorf("service: search failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, geocoding.ErrNoResults
	}
	return candidates, nil
}

// RecordSearch фиксирует успешный поиск с выбранным вариантом
func (s *appService) RecordSearch(ctx context.Context, session models.Session, chosen geocoding.Candidate) error {
	s.mu.Lock()
	now := s.now()
	s.state.UsedSearch = true
	s.state.PrependNotification(&models.Notification{
		ID:          s.ids.next(now),
		Kind:        models.NotificationSearch,
		Title:       "Local Encontrado",
		Description: chosen.DisplayName,
		CreatedAt:   now,
	})
	events := s.evaluate(session)
	err := s.persist(ctx)
	s.mu.Unlock()

	s.publish(ctx, events)
	return err
}
