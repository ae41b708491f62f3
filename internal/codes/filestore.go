package codes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the whole code mapping in one pretty-printed JSON
// document that is loaded fully and rewritten wholesale on every
// mutation. A mutex serializes read-modify-write inside the process;
// concurrent writers from other processes are not protected.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Load(ctx context.Context) (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Put(ctx context.Context, code string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	data[code] = rec
	return s.write(data)
}

func (s *FileStore) Contains(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return false, err
	}
	_, ok := data[code]
	return ok, nil
}

func (s *FileStore) Redeem(ctx context.Context, code string, now time.Time) (RedeemOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return RedeemNotFound, err
	}
	rec, ok := data[code]
	if !ok {
		return RedeemNotFound, nil
	}
	if rec.Used {
		return RedeemAlreadyUsed, nil
	}
	usedAt := now.UTC()
	rec.Used = true
	rec.UsedAt = &usedAt
	data[code] = rec
	if err := s.write(data); err != nil {
		return RedeemNotFound, err
	}
	return RedeemOK, nil
}

// read loads the backing file. Callers must hold s.mu.
func (s *FileStore) read() (map[string]Record, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	data := map[string]Record{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, s.path, err)
	}
	return data, nil
}

// write rewrites the backing file wholesale. Callers must hold s.mu.
func (s *FileStore) write(data map[string]Record) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode codes: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
