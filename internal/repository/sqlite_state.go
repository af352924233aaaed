package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shenikar/alertabh/internal/service"
	"github.com/shenikar/alertabh/internal/snapshot"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS state_records (
	state_key      TEXT    NOT NULL,
	kind           TEXT    NOT NULL,
	schema_version INTEGER NOT NULL,
	payload        TEXT    NOT NULL,
	updated_at     INTEGER NOT NULL,
	PRIMARY KEY (state_key, kind)
);`

type SQLiteStateRepository struct {
	db *sql.DB
}

// NewSQLiteStateRepository создает таблицу при необходимости
func NewSQLiteStateRepository(ctx context.Context, db *sql.DB) (service.StateRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteStateRepository{db: db}, nil
}

func (r *SQLiteStateRepository) LoadRecords(ctx context.Context, key string) ([]snapshot.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, schema_version, payload, updated_at FROM state_records WHERE state_key = ? ORDER BY kind`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load state records: %w", err)
	}
	defer rows.Close()

	records := make([]snapshot.Record, 0, len(snapshot.Kinds))
	for rows.Next() {
		var (
			rec     snapshot.Record
			kind    string
			payload string
			updated int64
		)
		if err := rows.Scan(&kind, &rec.SchemaVersion, &payload, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan state record row: %w", err)
		}
		rec.Kind = snapshot.Kind(kind)
		rec.Payload = []byte(payload)
		rec.UpdatedAt = time.UnixMilli(updated).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error state records iteration: %w", err)
	}
	return records, nil
}

func (r *SQLiteStateRepository) SaveRecords(ctx context.Context, key string, records []snapshot.Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rec := range records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO state_records (state_key, kind, schema_version, payload, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (state_key, kind) DO UPDATE SET
				schema_version = excluded.schema_version,
				payload = excluded.payload,
				updated_at = excluded.updated_at`,
			key, string(rec.Kind), rec.SchemaVersion, string(rec.Payload), rec.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to save state record %s: %w", rec.Kind, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state records: %w", err)
	}
	return nil
}
