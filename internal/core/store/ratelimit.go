// Package store holds the in-process state backing admission control.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dtrwidget/designassist/internal/core"
)

// MemoryRateStore keeps one RateWindow per site in process memory.
//
// Each site has its own lock so a read-prune-check-append sequence executed
// through Update is atomic for that site, while unrelated sites only share the
// short map lookup.
type MemoryRateStore struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
}

type rateEntry struct {
	mu      sync.Mutex
	window  core.RateWindow
	removed bool
}

// NewMemoryRateStore returns an empty store.
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{entries: make(map[string]*rateEntry)}
}

// Update runs fn against the site's window while holding the site's lock.
// A missing window is created empty before fn runs.
func (s *MemoryRateStore) Update(ctx context.Context, key string, fn func(window *core.RateWindow) error) error {
	if s == nil {
		return errors.New("rate store is not initialized")
	}
	if fn == nil {
		return errors.New("update function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("rate key is required")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := s.entry(key)
		entry.mu.Lock()
		if entry.removed {
			// Swept between lookup and lock; pick up the replacement entry.
			entry.mu.Unlock()
			continue
		}
		err := fn(&entry.window)
		entry.mu.Unlock()
		return err
	}
}

// Snapshot returns a copy of the site's window and whether the site is known.
func (s *MemoryRateStore) Snapshot(key string) (core.RateWindow, bool) {
	if s == nil {
		return core.RateWindow{}, false
	}

	s.mu.Lock()
	entry, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return core.RateWindow{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	stamps := make([]time.Time, len(entry.window.Stamps))
	copy(stamps, entry.window.Stamps)
	return core.RateWindow{Stamps: stamps}, true
}

// Len returns the number of sites currently tracked.
func (s *MemoryRateStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops windows whose newest stamp is older than cutoff, including empty
// windows. It returns the number of sites removed.
func (s *MemoryRateStore) Sweep(cutoff time.Time) int {
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		entry.mu.Lock()
		if entry.window.Count() == 0 || entry.window.Newest().Before(cutoff) {
			entry.removed = true
			delete(s.entries, key)
			removed++
		}
		entry.mu.Unlock()
	}
	return removed
}

func (s *MemoryRateStore) entry(key string) *rateEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &rateEntry{}
		s.entries[key] = entry
	}
	return entry
}
