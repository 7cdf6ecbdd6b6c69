package inmemory

import (
	"context"
	"sync"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/repository/blob"
)

// RecordStore keeps the encoded collection in process memory. Every read
// decodes a fresh copy, so callers never share slices with the store.
type RecordStore struct {
	mu      sync.Mutex
	payload []byte
}

func NewRecordStore(seed ...familydomain.Family) (*RecordStore, error) {
	payload, err := blob.Encode(seed)
	if err != nil {
		return nil, err
	}
	return &RecordStore{payload: payload}, nil
}

func (s *RecordStore) LoadAll(ctx context.Context) ([]familydomain.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return blob.Decode(s.payload)
}

func (s *RecordStore) SaveAll(ctx context.Context, families []familydomain.Family) error {
	payload, err := blob.Encode(families)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()
	return nil
}

func (s *RecordStore) Update(ctx context.Context, mutate familydomain.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	families, err := blob.Decode(s.payload)
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
	s.payload = payload
	return nil
}
