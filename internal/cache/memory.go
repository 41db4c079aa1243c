package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

type memoryEntry struct {
	data      []byte
	absolute  time.Time
	sliding   time.Duration
	expiresAt time.Time // zero when the entry never expires
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is the single-instance fallback. Expired entries are dropped
// when they are next touched.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	clock   clock.Clock
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.System{}
	}
	return &MemoryStore{entries: make(map[string]*memoryEntry), clock: clk}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return nil, false, nil
	}
	s.renew(e)
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, opts Options) error {
	now := s.clock.UTCNow()
	e := &memoryEntry{data: append([]byte(nil), value...), sliding: opts.Sliding}
	if opts.Absolute > 0 {
		e.absolute = now.Add(opts.Absolute)
	}
	if d, ok := ttl(now, e.absolute, e.sliding); ok {
		e.expiresAt = now.Add(d)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Refresh(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live(key); ok {
		s.renew(e)
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RemoveByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len counts entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live must be called with mu held.
func (s *MemoryStore) live(key string) (*memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.clock.UTCNow()) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) renew(e *memoryEntry) {
	if e.sliding <= 0 {
		return
	}
	now := s.clock.UTCNow()
	d, _ := ttl(now, e.absolute, e.sliding)
	e.expiresAt = now.Add(d)
}
