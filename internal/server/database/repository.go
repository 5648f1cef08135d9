package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tgstash/internal/server/store"
)

// Repository provides file record persistence backed by Postgres.
// It implements store.Store.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Append inserts a new file record.
func (r *Repository) Append(ctx context.Context, rec store.FileRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO files (id, file_id, file_unique_id, file_name, caption, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		rec.ID,
		rec.ChannelFileRef,
		rec.ChannelUniqueRef,
		rec.FileName,
		rec.Caption,
		rec.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file record: %w", err)
	}
	return nil
}

// List returns all file records, newest first.
func (r *Repository) List(ctx context.Context) ([]store.FileRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, file_id, file_unique_id, file_name, caption, uploaded_at
		FROM files
		ORDER BY uploaded_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer rows.Close()

	recs := []store.FileRecord{}
	for rows.Next() {
		var rec store.FileRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ChannelFileRef,
			&rec.ChannelUniqueRef,
			&rec.FileName,
			&rec.Caption,
			&rec.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Find retrieves a record by its public id, falling back to the channel
// file reference for legacy identifiers.
func (r *Repository) Find(ctx context.Context, id string) (*store.FileRecord, error) {
	rec := &store.FileRecord{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, file_id, file_unique_id, file_name, caption, uploaded_at
		FROM files
		WHERE id = $1 OR file_id = $1
		LIMIT 1
	`, id).Scan(
		&rec.ID,
		&rec.ChannelFileRef,
		&rec.ChannelUniqueRef,
		&rec.FileName,
		&rec.Caption,
		&rec.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}
	return rec, nil
}

// Count returns the total number of file records.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count file records: %w", err)
	}
	return n, nil
}

// Ping verifies the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
