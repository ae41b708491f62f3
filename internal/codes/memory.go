package codes

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests and local development.
type MemStore struct {
	mu   sync.Mutex
	data map[string]Record
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]Record{}}
}

func (s *MemStore) Load(ctx context.Context) (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Record, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Put(ctx context.Context, code string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[code] = rec
	return nil
}

func (s *MemStore) Contains(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[code]
	return ok, nil
}

func (s *MemStore) Redeem(ctx context.Context, code string, now time.Time) (RedeemOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[code]
	if !ok {
		return RedeemNotFound, nil
	}
	if rec.Used {
		return RedeemAlreadyUsed, nil
	}
	usedAt := now.UTC()
	rec.Used = true
	rec.UsedAt = &usedAt
	s.data[code] = rec
	return RedeemOK, nil
}
