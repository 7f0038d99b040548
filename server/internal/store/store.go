package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/interday/reliastat/pkg/types"
)

// Entry is a stored analysis together with the time it was stored.
type Entry struct {
	Analysis types.Analysis
	StoredAt time.Time
}

// Store is a thread-safe in-memory analysis store keyed by analysis ID.
// A background goroutine (Run) periodically evicts entries older than the
// configured TTL. A TTL of zero keeps entries forever.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores a, replacing any analysis with the same ID.
func (s *Store) Put(a types.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[a.ID] = &Entry{
		Analysis: a,
		StoredAt: s.now(),
	}
}

// Get returns the analysis with the given ID. Expired entries that have not
// yet been evicted are reported as missing.
func (s *Store) Get(id string) (types.Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !s.live(e, s.now()) {
		return types.Analysis{}, false
	}
	return e.Analysis, true
}

// List returns up to limit live analyses, newest first. limit <= 0 means all.
func (s *Store) List(limit int) []types.Analysis {
	s.mu.RLock()
	now := s.now()
	entries := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if s.live(e, now) {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].StoredAt.Equal(entries[j].StoredAt) {
			return entries[i].StoredAt.After(entries[j].StoredAt)
		}
		return entries[i].Analysis.ID < entries[j].Analysis.ID
	})
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	out := make([]types.Analysis, len(entries))
	for i, e := range entries {
		out[i] = e.Analysis
	}
	return out
}

// Count returns the number of live entries. Expired entries that have not
// yet been evicted are not counted, matching Get and List.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	n := 0
	for _, e := range s.data {
		if s.live(e, now) {
			n++
		}
	}
	return n
}

// Evict removes entries stored at or before now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.data {
		if !s.live(e, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

func (s *Store) live(e *Entry, now time.Time) bool {
	return s.ttl <= 0 || e.StoredAt.After(now.Add(-s.ttl))
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted expired analyses", "count", n)
			}
		}
	}
}
