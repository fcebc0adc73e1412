package analyzer

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Record is one persisted analysis, the audit-log form of a Result.
type Record struct {
	ID        string          `json:"id"`
	Address   string          `json:"address"`
	Network   string          `json:"network"`
	Score     int             `json:"score"`
	Level     string          `json:"level"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store persists analysis results for later retrieval.
type Store interface {
	Save(ctx context.Context, r *Record) error
	// ListByAddress returns past analyses for an address, newest first.
	ListByAddress(ctx context.Context, address string, limit int) ([]*Record, error)
}

// MemoryStore implements Store in memory (for demo/testing).
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStore creates an empty in-memory analysis store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.records = append(s.records, &cp)
	return nil
}

func (s *MemoryStore) ListByAddress(_ context.Context, address string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, r := range s.records {
		if r.Address == address {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
