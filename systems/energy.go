package systems

import (
	"sync"
)

// LedgerEntry is one cell's energy and the time it was last written.
type LedgerEntry struct {
	Energy  float32
	Touched float64
}

// Ledger maps cell ids to energy. Entries are created lazily at the base
// value, clamped above at the maximum, and purged once stale. It is safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries map[uint32]LedgerEntry

	base float32
	max  float32
	ttl  float64
}

// NewLedger creates an empty ledger.
func NewLedger(base, max float32, ttl float64) *Ledger {
	return &Ledger{
		entries: make(map[uint32]LedgerEntry),
		base:    base,
		max:     max,
		ttl:     ttl,
	}
}

// Get returns the entry for id.
func (l *Ledger) Get(id uint32) (LedgerEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	return e, ok
}

// Energy returns the energy for id, or 0 when no entry exists.
func (l *Ledger) Energy(id uint32) float32 {
	e, _ := l.Get(id)
	return e.Energy
}

// Decay subtracts amount from an existing entry and refreshes it. When no
// entry exists one is created at the base value instead. Returns true if an
// entry was created.
func (l *Ledger) Decay(id uint32, amount float32, now float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		l.entries[id] = LedgerEntry{Energy: l.base, Touched: now}
		return true
	}
	e.Energy -= amount
	e.Touched = now
	l.entries[id] = e
	return false
}

// Credit adds amount, creating the entry at base first if absent. The result
// is clamped to the maximum. Returns the new energy.
func (l *Ledger) Credit(id uint32, amount float32, now float64) float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e.Energy = l.base
	}
	e.Energy += amount
	if e.Energy > l.max {
		e.Energy = l.max
	}
	e.Touched = now
	l.entries[id] = e
	return e.Energy
}

// Penalize subtracts amount from an existing entry. Missing entries are left
// absent. Returns false when there was nothing to penalize.
func (l *Ledger) Penalize(id uint32, amount float32, now float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return false
	}
	e.Energy -= amount
	e.Touched = now
	l.entries[id] = e
	return true
}

// Remove deletes the entry for id.
func (l *Ledger) Remove(id uint32) {
	l.mu.Lock()
	delete(l.entries, id)
	l.mu.Unlock()
}

// Purge deletes entries untouched for longer than the ttl and returns how
// many were removed.
func (l *Ledger) Purge(now float64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, e := range l.entries {
		if now-e.Touched > l.ttl {
			delete(l.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
