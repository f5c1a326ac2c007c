// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/compositor/texture"
	"github.com/gogpu/gputypes"
)

// ErrOutOfMemory is returned by MemoryProvider when an allocation would
// exceed its capacity.
var ErrOutOfMemory = errors.New("resource: out of memory")

// MemoryProvider is a ResourceProvider that only does bookkeeping.
// An optional capacity makes allocations beyond it fail, which simulates a
// device running out of memory.
//
// MemoryProvider is safe for concurrent use.
type MemoryProvider struct {
	mu       sync.Mutex
	capacity int
	next     texture.ResourceID
	live     map[texture.ResourceID]allocation

	liveBytes int
	peakBytes int
	created   uint64
	deleted   uint64
	failed    uint64
	failNext  error
}

type allocation struct {
	pool   int
	size   image.Point
	format gputypes.TextureFormat
	bytes  int
}

// NewMemoryProvider creates a provider. A capacity <= 0 means unlimited.
func NewMemoryProvider(capacity int) *MemoryProvider {
	return &MemoryProvider{
		capacity: capacity,
		live:     make(map[texture.ResourceID]allocation),
	}
}

// CreateResource records an allocation.
func (p *MemoryProvider) CreateResource(pool int, size image.Point, format gputypes.TextureFormat) (texture.ResourceID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.failNext; err != nil {
		p.failNext = nil
		p.failed++
		return 0, err
	}

	bytes := texture.MemorySizeBytes(size, format)
	if p.capacity > 0 && p.liveBytes+bytes > p.capacity {
		p.failed++
		return 0, fmt.Errorf("%w: %d + %d > %d bytes", ErrOutOfMemory, p.liveBytes, bytes, p.capacity)
	}

	p.next++
	p.live[p.next] = allocation{pool: pool, size: size, format: format, bytes: bytes}
	p.liveBytes += bytes
	p.peakBytes = max(p.peakBytes, p.liveBytes)
	p.created++
	return p.next, nil
}

// DeleteResource forgets an allocation. Unknown IDs are ignored.
func (p *MemoryProvider) DeleteResource(id texture.ResourceID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.live[id]
	if !ok {
		return
	}
	delete(p.live, id)
	p.liveBytes -= a.bytes
	p.deleted++
}

// FailNext makes the next CreateResource call return err.
func (p *MemoryProvider) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// IsLive reports whether id is allocated.
func (p *MemoryProvider) IsLive(id texture.ResourceID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live[id]
	return ok
}

// MemoryStats is a snapshot of MemoryProvider counters.
type MemoryStats struct {
	Live      int
	LiveBytes int
	PeakBytes int
	Created   uint64
	Deleted   uint64
	Failed    uint64
}

// String returns a human-readable summary.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Resources: %d live (%d bytes, peak %d), %d created, %d deleted, %d failed",
		s.Live, s.LiveBytes, s.PeakBytes, s.Created, s.Deleted, s.Failed)
}

// Stats returns the current counters.
func (p *MemoryProvider) Stats() MemoryStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return MemoryStats{
		Live:      len(p.live),
		LiveBytes: p.liveBytes,
		PeakBytes: p.peakBytes,
		Created:   p.created,
		Deleted:   p.deleted,
		Failed:    p.failed,
	}
}
