// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/priority"
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
)

// Texture manager errors.
var (
	// ErrInvalidSize is returned for empty sizes and formats without a known
	// texel size.
	ErrInvalidSize = errors.New("texture: invalid size or format")

	// ErrTextureTooLarge is returned when a dimension exceeds the manager's
	// maximum texture size.
	ErrTextureTooLarge = errors.New("texture: size exceeds maximum texture size")

	// ErrPriorityWindowClosed is returned when a priority is set outside the
	// window between ClearPriorities and PrioritizeTextures for a texture
	// that already took part in this frame's prioritization.
	ErrPriorityWindowClosed = errors.New("texture: priority window closed")

	// ErrBackingAllocation wraps resource provider failures.
	ErrBackingAllocation = errors.New("texture: backing allocation failed")

	// ErrForeignTexture is returned when a texture is used with a manager
	// that does not own it (or after it was released).
	ErrForeignTexture = errors.New("texture: texture not registered with this manager")

	// ErrInvariant is returned by AssertInvariants.
	ErrInvariant = errors.New("texture: manager invariant violated")
)

// Default configuration values.
const (
	// DefaultMemoryLimitBytes is the budget used until the embedder reports
	// a real allocation (64 MiB).
	DefaultMemoryLimitBytes = 64 * 1024 * 1024

	// DefaultMaxTextureSize is the default largest accepted dimension.
	DefaultMaxTextureSize = 8192
)

// Config holds configuration for creating a Manager.
type Config struct {
	// MaxMemoryLimitBytes is the GPU memory budget.
	// Defaults to DefaultMemoryLimitBytes if <= 0.
	MaxMemoryLimitBytes int

	// MaxTextureSize bounds each texture dimension.
	// Defaults to DefaultMaxTextureSize if <= 0.
	MaxTextureSize int

	// Pool is passed to the ResourceProvider with every allocation.
	Pool int

	// Logger receives bookkeeping records. Defaults to compositor.Logger().
	Logger *slog.Logger

	// Debug runs AssertInvariants after every mutating call and panics on
	// violation.
	Debug bool
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		MaxMemoryLimitBytes: DefaultMemoryLimitBytes,
		MaxTextureSize:      DefaultMaxTextureSize,
	}
}

// Manager owns the GPU memory budget for a set of prioritized textures.
//
// Each frame runs four phases in order:
//
//  1. ClearPriorities (or BeginFrame): every texture drops to priority.Lowest.
//  2. The caller sets priorities, then PrioritizeTextures (or EndFrame) sorts
//     textures and computes the priority cutoff.
//  3. ReduceMemory evicts backings that are over budget, least important first.
//  4. AcquireBackingTextureIfNeeded gives entitled textures a backing,
//     recycling an unused one of the same size and format when possible.
//
// Calling the phases out of order leaves the cutoff undefined.
//
// Manager is safe for concurrent use, but the phase discipline is the
// caller's responsibility.
type Manager struct {
	mu sync.Mutex

	// id tags every log record so several managers (one per compositor)
	// can share a logger.
	id    uuid.UUID
	log   *slog.Logger
	debug bool
	pool  int

	maxMemoryLimitBytes    int
	maxTextureSize         int
	memoryUseBytes         int
	memoryAboveCutoffBytes int
	memoryAvailableBytes   int
	priorityCutoff         priority.Priority

	textures map[TextureID]*Texture
	backings map[BackingID]*Backing

	// evictionOrder lists live backings, first to evict or recycle at the
	// front. Backings that may be evicted always precede protected ones.
	evictionOrder []*Backing

	nextTextureID TextureID
	nextBackingID BackingID

	frame         uint64
	priorityOpen  bool
	stats         counters
	tempTextures  []*Texture
	tempEvictable []*Backing
}

type counters struct {
	allocations        uint64
	allocationFailures uint64
	recycles           uint64
	evictions          uint64
}

// NewManager creates a texture manager.
func NewManager(cfg Config) *Manager {
	if cfg.MaxMemoryLimitBytes <= 0 {
		cfg.MaxMemoryLimitBytes = DefaultMemoryLimitBytes
	}
	if cfg.MaxTextureSize <= 0 {
		cfg.MaxTextureSize = DefaultMaxTextureSize
	}
	log := cfg.Logger
	if log == nil {
		log = compositor.Logger()
	}
	id := uuid.New()
	return &Manager{
		id:                   id,
		log:                  log.With("manager", id.String()),
		debug:                cfg.Debug,
		pool:                 cfg.Pool,
		maxMemoryLimitBytes:  cfg.MaxMemoryLimitBytes,
		maxTextureSize:       cfg.MaxTextureSize,
		memoryAvailableBytes: cfg.MaxMemoryLimitBytes,
		priorityCutoff:       priority.Lowest(),
		textures:             make(map[TextureID]*Texture),
		backings:             make(map[BackingID]*Backing),
	}
}

// CreateTexture registers a new texture handle. No GPU memory is allocated.
func (m *Manager) CreateTexture(size image.Point, format gputypes.TextureFormat) (*Texture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateDimensions(size, format, m.maxTextureSize); err != nil {
		return nil, err
	}

	m.nextTextureID++
	t := &Texture{
		id:       m.nextTextureID,
		size:     size,
		format:   format,
		bytes:    MemorySizeBytes(size, format),
		priority: priority.Lowest(),
	}
	t.manager.Store(m)
	m.textures[t.id] = t
	return t, nil
}

func validateDimensions(size image.Point, format gputypes.TextureFormat, maxTextureSize int) error {
	if size.X <= 0 || size.Y <= 0 || BytesPerPixel(format) == 0 {
		return fmt.Errorf("%w: %dx%d %v", ErrInvalidSize, size.X, size.Y, format)
	}
	if maxTextureSize > 0 && (size.X > maxTextureSize || size.Y > maxTextureSize) {
		return fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, size.X, size.Y, maxTextureSize)
	}
	return nil
}

// unregisterTexture is called by Texture.Release.
func (m *Manager) unregisterTexture(t *Texture) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.textures[t.id] != t {
		return
	}
	m.returnBackingLocked(t)
	delete(m.textures, t.id)
	t.manager.Store(nil)
	t.abovePriorityCutoff = false
	m.debugCheckLocked("unregisterTexture")
}

// ReturnBackingTexture detaches t's backing and moves it to the front of the
// eviction order, where it is the first candidate for recycling or eviction.
func (m *Manager) ReturnBackingTexture(t *Texture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.textures[t.id] != t {
		return
	}
	m.returnBackingLocked(t)
	m.debugCheckLocked("ReturnBackingTexture")
}

func (m *Manager) returnBackingLocked(t *Texture) {
	b := m.backings[t.backing]
	if b == nil {
		return
	}
	m.removeFromOrder(b)
	m.evictionOrder = slices.Insert(m.evictionOrder, 0, b)
	unlink(t, b)
}

func link(t *Texture, b *Backing) {
	t.backing = b.id
	b.owner = t
}

func unlink(t *Texture, b *Backing) {
	t.backing = 0
	b.owner = nil
}

// ClearPriorities resets every texture to priority.Lowest and opens the
// priority window for the frame.
func (m *Manager) ClearPriorities() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearPrioritiesLocked()
}

func (m *Manager) clearPrioritiesLocked() {
	for _, t := range m.textures {
		t.priority = priority.Lowest()
	}
	m.priorityOpen = true
}

// BeginFrame starts a frame: priorities are cleared and may be set with
// SetPriority until EndFrame.
func (m *Manager) BeginFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearPrioritiesLocked()
	m.log.Debug("texture: begin frame", "frame", m.frame+1, "textures", len(m.textures))
}

// SetPriority sets t's priority for this frame. It fails with
// ErrPriorityWindowClosed once the frame's priorities were sorted, unless t
// was created after that sort (such textures may then use RequestLate).
func (m *Manager) SetPriority(t *Texture, p priority.Priority) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.textures[t.id] != t {
		return ErrForeignTexture
	}
	if !m.priorityOpen && t.sortedFrame == m.frame && m.frame != 0 {
		return ErrPriorityWindowClosed
	}
	t.priority = p
	return nil
}

// EndFrame closes the priority window and runs PrioritizeTextures.
func (m *Manager) EndFrame() {
	m.PrioritizeTextures()
}

// compareTextures orders textures highest priority first, then by ID.
func compareTextures(a, b *Texture) int {
	if a.priority == b.priority {
		return cmp.Compare(a.id, b.id)
	}
	if priority.IsHigher(a.priority, b.priority) {
		return -1
	}
	return 1
}

// compareBackings orders backings for eviction: backings that are free to
// take come first, then by owner priority lowest first (orphans count as
// lowest), then by ID.
func compareBackings(a, b *Backing) int {
	if ea, eb := a.evictable(), b.evictable(); ea != eb {
		if ea {
			return -1
		}
		return 1
	}
	pa, pb := a.ownerPriority(), b.ownerPriority()
	if pa == pb {
		return cmp.Compare(a.id, b.id)
	}
	if priority.IsLower(pa, pb) {
		return -1
	}
	return 1
}

// PrioritizeTextures sorts textures by priority and computes the cutoff:
// the first priority whose textures do not all fit in the budget. Textures
// strictly above the cutoff are entitled to a backing; textures sharing the
// cutoff priority are rejected together. Backings are then put in eviction
// order.
func (m *Manager) PrioritizeTextures() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.priorityOpen = false
	m.frame++

	sorted := m.tempTextures[:0]
	for _, t := range m.textures {
		sorted = append(sorted, t)
	}
	slices.SortFunc(sorted, compareTextures)

	m.memoryAvailableBytes = m.maxMemoryLimitBytes
	m.priorityCutoff = priority.Lowest()
	memoryBytes := 0
	for _, t := range sorted {
		if t.priority == priority.Lowest() {
			break
		}
		if t.selfManaged {
			// Self-managed memory never gets acquired, so charge it by
			// shrinking what is available to everybody else.
			if memoryBytes+t.bytes > m.memoryAvailableBytes {
				m.priorityCutoff = t.priority
				m.memoryAvailableBytes = memoryBytes
				break
			}
			m.memoryAvailableBytes -= t.bytes
			continue
		}
		if memoryBytes+t.bytes > m.memoryAvailableBytes {
			m.priorityCutoff = t.priority
			break
		}
		memoryBytes += t.bytes
	}

	m.memoryAboveCutoffBytes = 0
	for _, t := range sorted {
		t.sortedFrame = m.frame
		t.abovePriorityCutoff = priority.IsHigher(t.priority, m.priorityCutoff)
		if t.abovePriorityCutoff && !t.selfManaged {
			m.memoryAboveCutoffBytes += t.bytes
		}
	}

	clear(sorted)
	m.tempTextures = sorted[:0]

	m.sortBackingsLocked()

	m.log.Debug("texture: prioritized",
		"frame", m.frame,
		"textures", len(m.textures),
		"cutoff", int(m.priorityCutoff),
		"above_cutoff_bytes", m.memoryAboveCutoffBytes,
		"available_bytes", m.memoryAvailableBytes,
		"use_bytes", m.memoryUseBytes)
	m.debugCheckLocked("PrioritizeTextures")
}

func (m *Manager) sortBackingsLocked() {
	slices.SortFunc(m.evictionOrder, compareBackings)
}

// RequestLate asks for a backing for a texture that missed this frame's
// PrioritizeTextures. It succeeds when the texture is already entitled, or
// when its priority equals the cutoff and its bytes still fit in the
// available budget; in that case the texture becomes entitled. Textures
// below the cutoff are always refused. Backings destroyed earlier in the
// frame are not brought back.
func (m *Manager) RequestLate(t *Texture) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.textures[t.id] != t || t.selfManaged {
		return false
	}
	if t.abovePriorityCutoff {
		return true
	}
	if priority.IsLower(t.priority, m.priorityCutoff) {
		return false
	}
	newBytes := m.memoryAboveCutoffBytes + t.bytes
	if newBytes > m.memoryAvailableBytes {
		return false
	}
	m.memoryAboveCutoffBytes = newBytes
	t.abovePriorityCutoff = true
	if t.backing != 0 {
		// A backing kept from an earlier frame is now protected.
		m.sortBackingsLocked()
	}
	m.debugCheckLocked("RequestLate")
	return true
}

// AcquireBackingTextureIfNeeded attaches a backing to an entitled texture
// that does not have one. Textures below the cutoff are left without a
// backing; that is a budget decision, not an error.
//
// An unused backing of the same size and format is recycled when one is
// available. Otherwise less important backings are evicted to make room
// and a new one is created through rp. Allocation failures are returned
// wrapped in ErrBackingAllocation and leave the manager unchanged.
func (m *Manager) AcquireBackingTextureIfNeeded(t *Texture, rp ResourceProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.textures[t.id] != t {
		return ErrForeignTexture
	}
	if t.backing != 0 || !t.abovePriorityCutoff || t.selfManaged {
		return nil
	}

	var b *Backing
	for _, cand := range m.evictionOrder {
		if !cand.evictable() {
			break
		}
		if cand.matches(t.size, t.format) {
			b = cand
			m.stats.recycles++
			break
		}
	}

	if b == nil {
		limit := min(m.memoryAvailableBytes, m.maxMemoryLimitBytes) - t.bytes
		m.reduceMemoryLocked(limit, rp)
		if m.memoryUseBytes+t.bytes > m.maxMemoryLimitBytes {
			// The limit shrank since the last prioritization and the
			// entitlement is stale: take memory from less important
			// textures only.
			m.evictBelowLocked(t, m.maxMemoryLimitBytes-t.bytes, rp)
			if m.memoryUseBytes+t.bytes > m.maxMemoryLimitBytes {
				m.log.Debug("texture: backing denied", "texture", uint64(t.id), "bytes", t.bytes)
				return nil
			}
		}
		var err error
		b, err = m.createBackingLocked(t.size, t.format, rp)
		if err != nil {
			return err
		}
	}

	if b.owner != nil {
		unlink(b.owner, b)
	}
	link(t, b)
	// Move the used backing to the end of the eviction order.
	m.removeFromOrder(b)
	m.evictionOrder = append(m.evictionOrder, b)

	m.debugCheckLocked("AcquireBackingTextureIfNeeded")
	return nil
}

// ReduceMemory enforces the budget. It evicts backings that are not
// entitled until memory use fits the available budget, then, if use still
// exceeds MaxMemoryLimitBytes (the limit was lowered without a new
// prioritization), evicts entitled backings least important first. Finally
// it frees orphaned backings kept for recycling when they waste more than
// 10% of the available budget.
func (m *Manager) ReduceMemory(rp ResourceProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sortBackingsLocked()
	m.reduceMemoryLocked(m.memoryAvailableBytes, rp)
	if m.memoryUseBytes > m.maxMemoryLimitBytes {
		m.evictAnyLocked(m.maxMemoryLimitBytes, rp)
	}

	// Backings of released textures are collected for recycling. Keeping
	// them forever would pin the whole budget even when little is needed,
	// so trim anything beyond 10%.
	wasted := 0
	for _, b := range m.evictionOrder {
		if b.owner != nil {
			break
		}
		wasted += b.bytes
	}
	tenPercent := m.memoryAvailableBytes / 10
	if wasted > tenPercent {
		m.reduceMemoryLocked(m.memoryAboveCutoffBytes+tenPercent, rp)
	}

	m.log.Debug("texture: reduced memory",
		"use_bytes", m.memoryUseBytes,
		"limit_bytes", m.maxMemoryLimitBytes,
		"backings", len(m.backings))
	m.debugCheckLocked("ReduceMemory")
}

// ReduceMemoryTo evicts backings in eviction order until memory use is at
// most limit. It stops at the first backing whose owner is entitled.
func (m *Manager) ReduceMemoryTo(limit int, rp ResourceProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reduceMemoryLocked(limit, rp)
	m.debugCheckLocked("ReduceMemoryTo")
}

func (m *Manager) reduceMemoryLocked(limit int, rp ResourceProvider) {
	for m.memoryUseBytes > limit && len(m.evictionOrder) > 0 {
		b := m.evictionOrder[0]
		if !b.evictable() {
			break
		}
		m.destroyBackingLocked(b, rp)
	}
}

// evictAnyLocked evicts in eviction order, entitled backings included.
func (m *Manager) evictAnyLocked(limit int, rp ResourceProvider) {
	for m.memoryUseBytes > limit && len(m.evictionOrder) > 0 {
		m.destroyBackingLocked(m.evictionOrder[0], rp)
	}
}

// evictBelowLocked evicts backings whose owners rank below t.
func (m *Manager) evictBelowLocked(t *Texture, limit int, rp ResourceProvider) {
	victims := m.tempEvictable[:0]
	for _, b := range m.evictionOrder {
		if b.owner == nil || compareTextures(b.owner, t) > 0 {
			victims = append(victims, b)
		}
	}
	slices.SortFunc(victims, compareBackings)
	for _, b := range victims {
		if m.memoryUseBytes <= limit {
			break
		}
		m.destroyBackingLocked(b, rp)
	}
	clear(victims)
	m.tempEvictable = victims[:0]
}

// ClearAllMemory destroys every backing. Used when the GPU context is lost
// but still able to release resources.
func (m *Manager) ClearAllMemory(rp ResourceProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.evictionOrder)
	for len(m.evictionOrder) > 0 {
		m.destroyBackingLocked(m.evictionOrder[0], rp)
	}
	m.log.Info("texture: cleared all memory", "backings", n)
	m.debugCheckLocked("ClearAllMemory")
}

// AllBackingTexturesWereDeleted forgets every backing without calling the
// resource provider, because the device that owned them is already gone.
// Every texture is left without a backing.
func (m *Manager) AllBackingTexturesWereDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.evictionOrder)
	for len(m.evictionOrder) > 0 {
		m.destroyBackingLocked(m.evictionOrder[0], nil)
	}
	m.log.Info("texture: backing textures lost", "backings", n)
	m.debugCheckLocked("AllBackingTexturesWereDeleted")
}

// Close destroys every backing and detaches every texture.
// The manager must not be used afterwards.
func (m *Manager) Close(rp ResourceProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.evictionOrder) > 0 {
		m.destroyBackingLocked(m.evictionOrder[0], rp)
	}
	for id, t := range m.textures {
		t.manager.Store(nil)
		t.abovePriorityCutoff = false
		delete(m.textures, id)
	}
}

func (m *Manager) createBackingLocked(size image.Point, format gputypes.TextureFormat, rp ResourceProvider) (*Backing, error) {
	res, err := rp.CreateResource(m.pool, size, format)
	if err != nil {
		m.stats.allocationFailures++
		m.log.Warn("texture: backing allocation failed",
			"width", size.X, "height", size.Y, "format", format.String(), "err", err)
		return nil, fmt.Errorf("%w: %dx%d %v: %w", ErrBackingAllocation, size.X, size.Y, format, err)
	}

	m.nextBackingID++
	b := &Backing{
		id:       m.nextBackingID,
		resource: res,
		size:     size,
		format:   format,
		bytes:    MemorySizeBytes(size, format),
	}
	m.backings[b.id] = b
	m.evictionOrder = append(m.evictionOrder, b)
	m.memoryUseBytes += b.bytes
	m.stats.allocations++
	return b, nil
}

// destroyBackingLocked releases b. A nil rp skips the provider call.
func (m *Manager) destroyBackingLocked(b *Backing, rp ResourceProvider) {
	if rp != nil {
		rp.DeleteResource(b.resource)
	}
	if b.owner != nil {
		unlink(b.owner, b)
	}
	m.memoryUseBytes -= b.bytes
	m.removeFromOrder(b)
	delete(m.backings, b.id)
	m.stats.evictions++
}

func (m *Manager) removeFromOrder(b *Backing) {
	if i := slices.Index(m.evictionOrder, b); i >= 0 {
		m.evictionOrder = slices.Delete(m.evictionOrder, i, i+1)
	}
}

// SetMaxMemoryLimitBytes changes the budget. It takes effect on the next
// ReduceMemory or AcquireBackingTextureIfNeeded call.
func (m *Manager) SetMaxMemoryLimitBytes(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bytes != m.maxMemoryLimitBytes {
		m.log.Info("texture: memory limit changed", "from", m.maxMemoryLimitBytes, "to", bytes)
	}
	m.maxMemoryLimitBytes = bytes
}

// MaxMemoryLimitBytes returns the budget.
func (m *Manager) MaxMemoryLimitBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxMemoryLimitBytes
}

// MemoryUseBytes returns the bytes held by live backings.
func (m *Manager) MemoryUseBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memoryUseBytes
}

// MemoryAboveCutoffBytes returns the bytes that would be used if every
// entitled texture had a backing.
func (m *Manager) MemoryAboveCutoffBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memoryAboveCutoffBytes
}

// MemoryAvailableBytes returns the budget left after self-managed textures.
func (m *Manager) MemoryAvailableBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memoryAvailableBytes
}

// MemoryForSelfManagedTextures returns the bytes charged to self-managed
// textures by the last prioritization.
func (m *Manager) MemoryForSelfManagedTextures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxMemoryLimitBytes - m.memoryAvailableBytes
}

// PriorityCutoff returns the first priority that did not fit in the budget.
func (m *Manager) PriorityCutoff() priority.Priority {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priorityCutoff
}

// ID returns the manager's instance identifier, attached to its log
// records as "manager".
func (m *Manager) ID() uuid.UUID { return m.id }

// MaxTextureSize returns the largest accepted texture dimension.
func (m *Manager) MaxTextureSize() int { return m.maxTextureSize }

// Pool returns the resource pool passed to the provider.
func (m *Manager) Pool() int { return m.pool }

// Textures returns the registered textures ordered by ID.
func (m *Manager) Textures() []*Texture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Texture, 0, len(m.textures))
	for _, t := range m.textures {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Texture) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Backings returns the live backings in eviction order.
func (m *Manager) Backings() []*Backing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.evictionOrder)
}
