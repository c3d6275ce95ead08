package session

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Backend.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	fan     *fanout
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), fan: newFanout()}
}

func (s *MemoryStore) Create(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ShortCode]; ok {
		return fmt.Errorf("create %s: %w", rec.ShortCode, ErrExists)
	}
	s.records[rec.ShortCode] = rec.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok {
		return Record{}, fmt.Errorf("get %s: %w", code, ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, code string, fn func(*Record) error) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok {
		return Record{}, fmt.Errorf("update %s: %w", code, ErrNotFound)
	}
	rec = rec.Clone()
	if err := fn(&rec); err != nil {
		return Record{}, err
	}
	rec.ShortCode = code
	s.records[code] = rec
	s.fan.publish(rec)
	return rec.Clone(), nil
}

func (s *MemoryStore) WriteDrawing(ctx context.Context, code, data string) error {
	_, err := s.Update(ctx, code, func(r *Record) error {
		r.DrawingData = data
		return nil
	})
	return err
}

func (s *MemoryStore) Subscribe(ctx context.Context, code string, fn func(Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok {
		return fmt.Errorf("subscribe %s: %w", code, ErrNotFound)
	}
	s.fan.add(ctx, rec, fn)
	return nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}
