package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Esquema esperado:
//
//	CREATE TABLE documents (
//		key        TEXT PRIMARY KEY,
//		value      JSONB NOT NULL,
//		updated_at TIMESTAMPTZ NOT NULL
//	);
type PgDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewPgDocumentRepository(pool *pgxpool.Pool) *PgDocumentRepository {
	return &PgDocumentRepository{pool: pool}
}

func (r *PgDocumentRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `
		SELECT value
		FROM documents
		WHERE key = $1
	`
	var value []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *PgDocumentRepository) Set(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO documents (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query, key, string(value), time.Now().UTC())
	return err
}
