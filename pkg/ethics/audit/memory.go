package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-memory per-agent log. It is
// suitable for tests and ephemeral deployments; durable deployments should
// use SQLiteStore.
type MemoryStore struct {
	mu      sync.RWMutex
	byAgent map[string][]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byAgent: make(map[string][]*Entry),
	}
}

// Backend names the backend.
func (s *MemoryStore) Backend() string { return "memory" }

// Append persists an entry. The entry is copied so later caller mutations
// cannot alter the stored record.
func (s *MemoryStore) Append(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := copyEntry(entry)

	s.mu.Lock()
	s.byAgent[stored.AgentID] = append(s.byAgent[stored.AgentID], stored)
	s.mu.Unlock()

	return nil
}

// History returns the agent's entries most recent first, bounded by the
// optional inclusive time range. Per-agent insertion order is preserved.
func (s *MemoryStore) History(ctx context.Context, agentID string, start, end *time.Time) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.byAgent[agentID]
	results := make([]*Entry, 0, len(entries))

	// Walk backwards so the newest insertion comes first.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if start != nil && e.Timestamp.Before(*start) {
			continue
		}
		if end != nil && e.Timestamp.After(*end) {
			continue
		}
		results = append(results, copyEntry(e))
	}

	return results, nil
}

// Count returns the number of entries for the agent, or all entries when
// the agent id is empty.
func (s *MemoryStore) Count(ctx context.Context, agentID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if agentID != "" {
		return int64(len(s.byAgent[agentID])), nil
	}

	var total int64
	for _, entries := range s.byAgent {
		total += int64(len(entries))
	}
	return total, nil
}

// DeleteBefore removes entries older than the cutoff.
func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for agent, entries := range s.byAgent {
		kept := entries[:0]
		for _, e := range entries {
			if e.Timestamp.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(s.byAgent, agent)
		} else {
			s.byAgent[agent] = kept
		}
	}

	return deleted, nil
}

// Close releases the store's entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byAgent = make(map[string][]*Entry)
	return nil
}

// copyEntry makes a defensive copy of an entry, including its context map.
func copyEntry(e *Entry) *Entry {
	out := *e
	if e.Context != nil {
		out.Context = make(map[string]string, len(e.Context))
		for k, v := range e.Context {
			out.Context[k] = v
		}
	}
	if e.Clearance != nil {
		clearance := *e.Clearance
		out.Clearance = &clearance
	}
	return &out
}
