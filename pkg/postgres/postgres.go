package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Состояние пишет один процесс, большой пул не нужен
const (
	maxConns        = 4
	maxConnIdleTime = 5 * time.Minute
	applicationName = "alertabh"
)

// NewPostgresDB создает пул соединений PostgreSQL и проверяет доступность базы
func NewPostgresDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfgPool, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе конфигурации postgres: %w", err)
	}
	cfgPool.MaxConns = maxConns
	cfgPool.MaxConnIdleTime = maxConnIdleTime
	if _, ok := cfgPool.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfgPool.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, cfgPool)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("не удалось выполнить ping к postgres: %w", err)
	}

	return dbpool, nil
}
