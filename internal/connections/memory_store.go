package connections

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryBlacklist implements BlacklistStore in memory (for demo/testing).
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]*BlacklistEntry
}

// NewMemoryBlacklist creates an empty in-memory blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]*BlacklistEntry)}
}

func (s *MemoryBlacklist) Add(_ context.Context, e *BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	cp.Active = true
	if cp.AddedAt.IsZero() {
		cp.AddedAt = time.Now()
	}
	s.entries[cp.Address] = &cp
	return nil
}

func (s *MemoryBlacklist) Deactivate(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[address]
	if !ok || !e.Active {
		return ErrNotBlacklisted
	}
	e.Active = false
	return nil
}

func (s *MemoryBlacklist) Get(_ context.Context, address string) (*BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[address]
	if !ok || !e.Active {
		return nil, ErrNotBlacklisted
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryBlacklist) CheckMany(_ context.Context, addresses []string) (map[string]*BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*BlacklistEntry)
	for _, addr := range addresses {
		if e, ok := s.entries[addr]; ok && e.Active {
			cp := *e
			out[addr] = &cp
		}
	}
	return out, nil
}

func (s *MemoryBlacklist) List(_ context.Context, limit int) ([]*BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*BlacklistEntry
	for _, e := range s.entries {
		if e.Active {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryReports implements ReportStore in memory (for demo/testing).
type MemoryReports struct {
	mu      sync.RWMutex
	reports map[string]*ScamReport // id → report
}

// NewMemoryReports creates an empty in-memory report store.
func NewMemoryReports() *MemoryReports {
	return &MemoryReports{reports: make(map[string]*ScamReport)}
}

func (s *MemoryReports) Create(_ context.Context, r *ScamReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.reports[cp.ID] = &cp
	return nil
}

func (s *MemoryReports) Verify(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return ErrReportNotFound
	}
	r.Verified = true
	return nil
}

func (s *MemoryReports) CheckManyVerified(_ context.Context, addresses []string) (map[string]*ScamReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		want[addr] = struct{}{}
	}

	out := make(map[string]*ScamReport)
	for _, r := range s.reports {
		if !r.Verified {
			continue
		}
		if _, ok := want[r.Address]; !ok {
			continue
		}
		if existing, ok := out[r.Address]; !ok || r.CreatedAt.After(existing.CreatedAt) {
			cp := *r
			out[r.Address] = &cp
		}
	}
	return out, nil
}

func (s *MemoryReports) ListByAddress(_ context.Context, address string) ([]*ScamReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ScamReport
	for _, r := range s.reports {
		if r.Address == address {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
