package service

import (
	"context"
	"fmt"

	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/webhook"
	"github.com/sirupsen/logrus"
)

// FuelOptions возвращает виды топлива
func (s *appService) FuelOptions() []models.FuelOption {
	out := make([]models.FuelOption, len(s.catalog.Fuel))
	copy(out, s.catalog.Fuel)
	return out
}

// QuoteFuel рассчитывает стоимость без изменения состояния
func (s *appService) QuoteFuel(fuelID string, litres int) (models.FuelQuote, error) {
	return s.catalog.Quote(fuelID, litres)
}

// OrderFuel оформляет имитацию заказа; без подтверждения возвращает расчет
// и ErrConfirmationRequired
func (s *appService) OrderFuel(ctx context.Context, session models.Session, fuelID string, litres int, confirmed bool) (models.FuelQuote, error) {
	quote, err := s.catalog.Quote(fuelID, litres)
	if err != nil {
		return models.FuelQuote{}, err
	}
	if !confirmed {
		return quote, ErrConfirmationRequired
	}

	s.mu.Lock()
	now := s.now()
	n := &models.Notification{
		ID:          s.ids.next(now),
		Kind:        models.NotificationFuel,
		Title:       "Pedido Confirmado!",
		Description: fmt.Sprintf("%dL de %s - R$ %s", quote.Litres, quote.Fuel.Name, catalog.FormatCents(quote.TotalCents)),
		CreatedAt:   now,
	}
	s.state.PrependNotification(n)
	notice := *n
	err = s.persist(ctx)
	s.mu.Unlock()

	ev := webhook.NewEvent(webhook.EventFuelOrdered, session.Name, now)
	ev.Notice = &notice
	s.publish(ctx, []webhook.Event{ev})

	s.logger.WithFields(logrus.Fields{
		"service": "app",
		"method":  "OrderFuel",
		"fuel":    fuelID,
		"litres":  litres,
	}).Info("Fuel order confirmed")
	return quote, err
}
