package runstore

import (
	"fmt"
	"sort"
	"sync"
)

// Memory is a thread-safe in-memory Store keyed by record ID.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]Record
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]Record)}
}

// UpsertAll validates every record before storing any of them.
func (m *Memory) UpsertAll(records []Record) (int, error) {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("upsert: %w", err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.runs[r.ID] = r
	}
	return len(records), nil
}

// ListSince returns runs started at or after sinceMs, oldest first. Ties
// are broken by ID so the order is stable.
func (m *Memory) ListSince(sinceMs int64) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.runs))
	for _, r := range m.runs {
		if r.StartedAtEpochMs >= sinceMs {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAtEpochMs != out[j].StartedAtEpochMs {
			return out[i].StartedAtEpochMs < out[j].StartedAtEpochMs
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetByID(id string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok, nil
}

func (m *Memory) DeleteByID(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return false, nil
	}
	delete(m.runs, id)
	return true, nil
}

func (m *Memory) HighestIndexInWindow(nowMs int64, days int) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]Record, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	ppi, ok := HighestIndexInWindow(runs, nowMs, days)
	return ppi, ok, nil
}

// Len returns the number of stored runs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// Clear removes every run.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = make(map[string]Record)
}
