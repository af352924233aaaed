package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/alertabh/internal/service"
	"github.com/shenikar/alertabh/internal/snapshot"
)

type RedisStateRepository struct {
	redisClient *redis.Client
}

func NewRedisStateRepository(redisClient *redis.Client) service.StateRepository {
	return &RedisStateRepository{redisClient: redisClient}
}

func stateRecordKey(key string, kind snapshot.Kind) string {
	return fmt.Sprintf("alertabh:%s:%s", key, kind)
}

// LoadRecords читает записи всех известных видов; отсутствующие пропускаются
func (r *RedisStateRepository) LoadRecords(ctx context.Context, key string) ([]snapshot.Record, error) {
	keys := make([]string, len(snapshot.Kinds))
	for i, kind := range snapshot.Kinds {
		keys[i] = stateRecordKey(key, kind)
	}
	vals, err := r.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load state records from redis: %w", err)
	}

	records := make([]snapshot.Record, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec snapshot.Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state record %s: %w", keys[i], err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveRecords пишет все записи атомарно через MULTI/EXEC
func (r *RedisStateRepository) SaveRecords(ctx context.Context, key string, records []snapshot.Record) error {
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			val, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal state record %s: %w", rec.Kind, err)
			}
			pipe.Set(ctx, stateRecordKey(key, rec.Kind), val, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state records to redis: %w", err)
	}
	return nil
}
