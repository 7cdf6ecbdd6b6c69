package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/repository/blob"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RecordStore snapshots the collection into the record_blobs table.
type RecordStore struct {
	db  *sql.DB
	key string
}

func NewRecordStore(db *sql.DB, key string) *RecordStore {
	if key == "" {
		key = blob.DefaultKey
	}
	return &RecordStore{db: db, key: key}
}

func (s *RecordStore) LoadAll(ctx context.Context) ([]familydomain.Family, error) {
	return s.load(ctx, s.db)
}

func (s *RecordStore) SaveAll(ctx context.Context, families []familydomain.Family) error {
	return s.save(ctx, s.db, families)
}

func (s *RecordStore) Update(ctx context.Context, mutate familydomain.Mutation) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	families, err := s.load(ctx, tx)
	if err != nil {
		return err
	}
	updated, changed, err := mutate(families)
	if err != nil {
		return err
	}
	if changed {
		if err := s.save(ctx, tx, updated); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *RecordStore) load(ctx context.Context, q querier) ([]familydomain.Family, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload FROM record_blobs WHERE key = ?`, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []familydomain.Family{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select record blob: %w", err)
	}
	return blob.Decode([]byte(payload))
}

func (s *RecordStore) save(ctx context.Context, q querier, families []familydomain.Family) error {
	payload, err := blob.Encode(families)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO record_blobs (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, s.key, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert record blob: %w", err)
	}
	return nil
}
