package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/repo"
)

var _ repo.CheckStore = (*Store)(nil)

// Schema holds one JSON document per (collection, id).
const Schema = `
CREATE TABLE IF NOT EXISTS records (
  collection TEXT        NOT NULL,
  id         TEXT        NOT NULL,
  data       JSONB       NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (collection, id)
);
`

const uniqueViolation = "23505"

type Store struct {
	pool       *pgxpool.Pool
	log        *zap.Logger
	collection string
}

func New(ctx context.Context, dsn, collection string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log, collection: collection}, nil
}

// Migrate creates the records table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	s.log.Info("records_schema_ready", zap.String("collection", s.collection))
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM records WHERE collection = $1 ORDER BY id`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data::text FROM records WHERE collection = $1 AND id = $2`,
		s.collection, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("read %s: %w", id, repo.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return data, nil
}

func (s *Store) Create(ctx context.Context, rec domain.CheckRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		s.collection, rec.ID, string(b))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("create %s: %w", rec.ID, repo.ErrExists)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, id string, rec domain.CheckRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET data = $3::jsonb, updated_at = now()
		  WHERE collection = $1 AND id = $2`,
		s.collection, id, string(b))
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", id, repo.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND id = $2`, s.collection, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", id, repo.ErrNotFound)
	}
	return nil
}
