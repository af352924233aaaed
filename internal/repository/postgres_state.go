package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/alertabh/internal/service"
	"github.com/shenikar/alertabh/internal/snapshot"
)

type PostgresStateRepository struct {
	db *pgxpool.Pool
}

func NewPostgresStateRepository(db *pgxpool.Pool) service.StateRepository {
	return &PostgresStateRepository{db: db}
}

// LoadRecords возвращает все записи состояния по ключу
func (r *PostgresStateRepository) LoadRecords(ctx context.Context, key string) ([]snapshot.Record, error) {
	query := `
		SELECT kind, schema_version, payload, updated_at
		FROM state_records
		WHERE state_key = $1
		ORDER BY kind;
	`
	rows, err := r.db.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load state records: %w", err)
	}
	defer rows.Close()

	records := make([]snapshot.Record, 0, len(snapshot.Kinds))
	for rows.Next() {
		var rec snapshot.Record
		var kind string
		var payload []byte
		if err := rows.Scan(&kind, &rec.SchemaVersion, &payload, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan state record row: %w", err)
		}
		rec.Kind = snapshot.Kind(kind)
		rec.Payload = payload
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error state records iteration: %w", err)
	}
	return records, nil
}

// SaveRecords записывает все записи в одной транзакции
func (r *PostgresStateRepository) SaveRecords(ctx context.Context, key string, records []snapshot.Record) error {
	query := `
		INSERT INTO state_records (state_key, kind, schema_version, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (state_key, kind) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at;
	`
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(query, key, string(rec.Kind), rec.SchemaVersion, []byte(rec.Payload), rec.UpdatedAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to save state records: %w", err)
	}
	return nil
}
