package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"edadash/models"
	"edadash/ports"
)

// uploadRepository implements ports.UploadLedger on Postgres.
type uploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository creates an upload ledger backed by db.
func NewUploadRepository(db *sqlx.DB) ports.UploadLedger {
	return &uploadRepository{db: db}
}

// Migrate creates the uploads table if it does not exist.
func Migrate(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS uploads (
		id UUID PRIMARY KEY,
		original_filename TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		field_count INTEGER NOT NULL,
		result JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate uploads table: %w", err)
	}
	return nil
}

// Record inserts a completed analysis into the ledger.
func (r *uploadRepository) Record(ctx context.Context, rec *ports.UploadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	query := `INSERT INTO uploads (
		id, original_filename, record_count, field_count, result, created_at
	) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.Rows, rec.Columns, resultJSON, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// ListRecent returns the newest ledger entries, newest first.
func (r *uploadRepository) ListRecent(ctx context.Context, limit int) ([]*ports.UploadRecord, error) {
	query := `SELECT id, original_filename, record_count, field_count, result, created_at
		FROM uploads ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var records []*ports.UploadRecord
	for rows.Next() {
		var (
			rec        ports.UploadRecord
			resultJSON []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Rows, &rec.Columns, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		var result models.AnalysisResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
		}
		rec.Result = &result
		records = append(records, &rec)
	}
	return records, rows.Err()
}
