package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/alertabh/internal/models"
)

const (
	eventQueueKey = "alertabh:events"
)

// EventType - тип доменного события
type EventType string

const (
	EventAlertCreated        EventType = "alert.created"
	EventAlertRemoved        EventType = "alert.removed"
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventFuelOrdered         EventType = "fuel.ordered"
)

// Event - структура для данных вебхука
type Event struct {
	ID          uuid.UUID            `json:"id"`
	Type        EventType            `json:"type"`
	Actor       string               `json:"actor"`
	Timestamp   time.Time            `json:"timestamp"`
	Alert       *EventAlert          `json:"alert,omitempty"`
	Achievement string               `json:"achievement,omitempty"`
	Notice      *models.Notification `json:"notification,omitempty"`
}

// EventAlert - алерт без фото, чтобы не раздувать очередь
type EventAlert struct {
	ID        int64           `json:"id"`
	Category  string          `json:"type"`
	Latitude  float64         `json:"lat"`
	Longitude float64         `json:"lng"`
	Severity  models.Severity `json:"severity"`
	Duration  int             `json:"duration"`
	Location  string          `json:"location"`
	HasPhoto  bool            `json:"hasPhoto"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent создает событие с новым id
func NewEvent(t EventType, actor string, now time.Time) Event {
	return Event{ID: uuid.New(), Type: t, Actor: actor, Timestamp: now.UTC()}
}

// WithAlert прикладывает алерт к событию
func (e Event) WithAlert(a *models.Alert) Event {
	e.Alert = &EventAlert{
		ID:        a.ID,
		Category:  a.Category,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Severity:  a.Severity,
		Duration:  a.DurationMinutes,
		Location:  a.Location,
		HasPhoto:  a.HasPhoto(),
		CreatedAt: a.CreatedAt,
	}
	return e
}

// Publisher - интерфейс для публикации событий
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher - реализация Publisher, использующая Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH + BRPOP на стороне воркера дают FIFO
	if err := p.redisClient.LPush(ctx, eventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}

// Queue - источник событий для воркера
type Queue interface {
	// Pop ждет событие не дольше timeout; при пустой очереди возвращает ErrQueueEmpty
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

// ErrQueueEmpty - очередь пуста
var ErrQueueEmpty = errors.New("queue is empty")

// RedisQueue читает очередь событий из Redis
type RedisQueue struct {
	redisClient *redis.Client
}

// NewRedisQueue создает RedisQueue
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{redisClient: client}
}

// Pop извлекает событие из правой части списка
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.redisClient.BRPop(ctx, timeout, eventQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrQueueEmpty
		}
		return "", err
	}
	// result[0] - ключ, result[1] - значение
	return result[1], nil
}
