package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shenikar/alertabh/internal/config"
	"github.com/sirupsen/logrus"
)

const popTimeout = 2 * time.Second

// Worker - структура для обработки и отправки вебхуков
type Worker struct {
	queue      Queue
	logger     *logrus.Logger
	cfg        *config.Config
	httpClient *http.Client
}

// NewWorker создает новый Worker
func NewWorker(queue Queue, logger *logrus.Logger, cfg *config.Config) *Worker {
	return &Worker{
		queue:  queue,
		logger: logger,
		cfg:    cfg,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

// Run обрабатывает очередь до отмены контекста
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Starting webhook worker...")
	for {
		if ctx.Err() != nil {
			w.logger.Info("Stopping webhook worker.")
			return nil
		}

		payload, err := w.queue.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, ErrQueueEmpty) {
				continue
			}
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue // Контекст отменен, но не ошибка Redis
			}
			w.logger.WithError(err).Error("Failed to pop webhook event from queue")
			sleep(ctx, w.cfg.WebhookTimeout) // Ждем перед повторной попыткой
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			w.logger.WithError(err).Error("Failed to unmarshal webhook event from queue")
			continue
		}

		w.deliver(ctx, event, payload)
	}
}

func (w *Worker) deliver(ctx context.Context, event Event, rawPayload string) {
	log := w.logger.WithField("event_id", event.ID).WithField("event_type", event.Type)
	log.Debug("Processing webhook event...")

	if w.cfg.WebhookURL == "" {
		log.Debug("Webhook URL is not configured. Skipping webhook delivery.")
		return
	}

	maxRetries := max(1, w.cfg.WebhookMaxRetries)
	delay := w.cfg.WebhookBaseDelay

	for i := 0; i < maxRetries; i++ {
		ok, err := w.send(ctx, rawPayload)
		if ok {
			log.Info("Webhook delivered successfully.")
			return
		}
		log.WithError(err).Warnf("Webhook delivery failed. Retrying in %v. Retries left: %d", delay, maxRetries-1-i)
		if i == maxRetries-1 || !sleep(ctx, delay) {
			break
		}
		delay *= 2 // Экспоненциальная задержка
	}

	log.Errorf("Failed to deliver webhook for event after %d attempts.", maxRetries)
}

func (w *Worker) send(ctx context.Context, rawPayload string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewBufferString(rawPayload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	// Добавляем HMAC подпись, если WEBHOOK_SECRET задан
	if w.cfg.WebhookSecret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(rawPayload, w.cfg.WebhookSecret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	return false, &statusError{code: resp.StatusCode}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.code)
}

// Sign генерирует HMAC-SHA256 подпись для данных
func Sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// sleep ждет d; false, если контекст отменен раньше
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
