// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"errors"
	"fmt"
)

// Stats is a snapshot of the manager's bookkeeping.
type Stats struct {
	// MaxMemoryLimitBytes is the configured budget.
	MaxMemoryLimitBytes int
	// MemoryUseBytes is held by live backings.
	MemoryUseBytes int
	// MemoryAboveCutoffBytes is what entitled textures need.
	MemoryAboveCutoffBytes int
	// MemoryAvailableBytes is the budget minus self-managed memory.
	MemoryAvailableBytes int

	Textures       int
	Backings       int
	OrphanBackings int

	// Allocations counts backings created through the provider.
	Allocations uint64
	// AllocationFailures counts provider errors.
	AllocationFailures uint64
	// Recycles counts backings handed to a new owner without allocating.
	Recycles uint64
	// Evictions counts destroyed backings.
	Evictions uint64
}

// Utilization returns the fraction of the budget in use.
func (s Stats) Utilization() float64 {
	if s.MaxMemoryLimitBytes <= 0 {
		return 0
	}
	return float64(s.MemoryUseBytes) / float64(s.MaxMemoryLimitBytes)
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Textures: %d/%d bytes (%.1f%%), above cutoff %d, %d textures, %d backings (%d orphaned), %d allocs, %d recycles, %d evictions",
		s.MemoryUseBytes, s.MaxMemoryLimitBytes, s.Utilization()*100,
		s.MemoryAboveCutoffBytes, s.Textures, s.Backings, s.OrphanBackings,
		s.Allocations, s.Recycles, s.Evictions)
}

// Stats returns the current bookkeeping snapshot.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	orphans := 0
	for _, b := range m.evictionOrder {
		if b.owner == nil {
			orphans++
		}
	}
	return Stats{
		MaxMemoryLimitBytes:    m.maxMemoryLimitBytes,
		MemoryUseBytes:         m.memoryUseBytes,
		MemoryAboveCutoffBytes: m.memoryAboveCutoffBytes,
		MemoryAvailableBytes:   m.memoryAvailableBytes,
		Textures:               len(m.textures),
		Backings:               len(m.backings),
		OrphanBackings:         orphans,
		Allocations:            m.stats.allocations,
		AllocationFailures:     m.stats.allocationFailures,
		Recycles:               m.stats.recycles,
		Evictions:              m.stats.evictions,
	}
}

// AssertInvariants checks the manager's internal consistency and returns
// every violation joined into one error wrapping ErrInvariant, or nil.
//
// It verifies that texture and backing ownership links agree in both
// directions, that every backing is listed exactly once in eviction order,
// that backings free to take precede protected ones, that the byte counters
// match the backings, and that entitled textures hold no more than the
// memory above the cutoff.
func (m *Manager) AssertInvariants() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkLocked()
}

func (m *Manager) debugCheckLocked(op string) {
	if !m.debug {
		return
	}
	if err := m.checkLocked(); err != nil {
		panic(fmt.Sprintf("texture: after %s: %v", op, err))
	}
}

func (m *Manager) checkLocked() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}

	for id, t := range m.textures {
		if t.id != id {
			fail("texture %d registered as %d", t.id, id)
		}
		if t.manager.Load() != m {
			fail("texture %d points to another manager", id)
		}
		if t.backing == 0 {
			continue
		}
		b, ok := m.backings[t.backing]
		if !ok {
			fail("texture %d links unknown backing %d", id, t.backing)
			continue
		}
		if b.owner != t {
			fail("texture %d links backing %d owned by someone else", id, b.id)
		}
	}

	listed := make(map[BackingID]int, len(m.evictionOrder))
	used := 0
	entitledUse := 0
	seenProtected := false
	for i, b := range m.evictionOrder {
		listed[b.id]++
		used += b.bytes
		if m.backings[b.id] != b {
			fail("backing %d in eviction order is not registered", b.id)
		}
		if b.owner != nil {
			if m.textures[b.owner.id] != b.owner {
				fail("backing %d owned by unregistered texture %d", b.id, b.owner.id)
			}
			if b.owner.backing != b.id {
				fail("backing %d owner %d links backing %d", b.id, b.owner.id, b.owner.backing)
			}
			if !b.matches(b.owner.size, b.owner.format) {
				fail("backing %d does not match owner %d dimensions", b.id, b.owner.id)
			}
			if b.owner.abovePriorityCutoff {
				entitledUse += b.bytes
			}
		}
		if b.evictable() {
			if seenProtected {
				fail("evictable backing %d at position %d follows a protected backing", b.id, i)
			}
		} else {
			seenProtected = true
		}
	}
	for id := range m.backings {
		if n := listed[id]; n != 1 {
			fail("backing %d listed %d times in eviction order", id, n)
		}
	}
	if used != m.memoryUseBytes {
		fail("memory use %d, backings hold %d", m.memoryUseBytes, used)
	}
	if entitledUse > m.memoryAboveCutoffBytes {
		fail("entitled textures hold %d bytes, above cutoff is %d", entitledUse, m.memoryAboveCutoffBytes)
	}

	return errors.Join(errs...)
}
