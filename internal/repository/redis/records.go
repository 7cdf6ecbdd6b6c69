package redis

import (
	"context"
	"errors"
	"fmt"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/repository/blob"
	"github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 10

var ErrUpdateContention = errors.New("records: too many concurrent writers")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RecordStore keeps the collection under a single string key. Update is an
// optimistic WATCH/MULTI cycle retried on conflict.
type RecordStore struct {
	client redis.UniversalClient
	key    string
}

func NewRecordStore(client redis.UniversalClient, key string) *RecordStore {
	if key == "" {
		key = blob.DefaultKey
	}
	return &RecordStore{client: client, key: key}
}

func (s *RecordStore) LoadAll(ctx context.Context) ([]familydomain.Family, error) {
	return s.load(ctx, s.client)
}

func (s *RecordStore) SaveAll(ctx context.Context, families []familydomain.Family) error {
	payload, err := blob.Encode(families)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RecordStore) Update(ctx context.Context, mutate familydomain.Mutation) error {
	txf := func(tx *redis.Tx) error {
		families, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		updated, changed, err := mutate(families)
		if err != nil || !changed {
			return err
		}
		payload, err := blob.Encode(updated)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrUpdateContention
}

func (s *RecordStore) load(ctx context.Context, cmd getter) ([]familydomain.Family, error) {
	payload, err := cmd.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []familydomain.Family{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return blob.Decode(payload)
}
