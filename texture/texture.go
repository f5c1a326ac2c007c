// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"image"
	"sync/atomic"

	"github.com/gogpu/compositor/priority"
	"github.com/gogpu/gputypes"
)

// TextureID identifies a texture handle inside its manager. IDs increase
// monotonically and break priority ties deterministically.
type TextureID uint64

// Texture is a client-visible handle describing a texture the caller would
// like to have resident: its size, format and priority for the current
// frame. The GPU memory itself lives in a Backing owned by the Manager and
// may be taken away under memory pressure; callers must check
// HaveBackingTexture before drawing.
//
// Textures are created with Manager.CreateTexture and must be released with
// Release. A Texture must not be copied. Its methods are safe for concurrent
// use with each other and with the manager.
type Texture struct {
	id TextureID
	// manager is cleared by Release and Manager.Close.
	manager atomic.Pointer[Manager]

	size   image.Point
	format gputypes.TextureFormat
	bytes  int

	priority            priority.Priority
	abovePriorityCutoff bool
	selfManaged         bool

	// sortedFrame is the manager frame in which this texture last took part
	// in PrioritizeTextures.
	sortedFrame uint64

	backing BackingID
}

// ID returns the manager-assigned identifier.
func (t *Texture) ID() TextureID { return t.id }

// Size returns the requested size in pixels.
func (t *Texture) Size() image.Point { return t.size }

// Format returns the requested pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Bytes returns the memory this texture needs when resident.
func (t *Texture) Bytes() int { return t.bytes }

// Manager returns the owning manager, or nil after Release.
func (t *Texture) Manager() *Manager { return t.manager.Load() }

// RequestPriority returns the priority set for the current frame.
// The value is only meaningful between ClearPriorities and the end of the
// frame; outside that window it is the previous frame's value.
func (t *Texture) RequestPriority() priority.Priority {
	if m := t.manager.Load(); m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return t.priority
}

// SetRequestPriority sets the texture's priority for the current frame.
// See Manager.SetPriority.
func (t *Texture) SetRequestPriority(p priority.Priority) error {
	m := t.manager.Load()
	if m == nil {
		return ErrForeignTexture
	}
	return m.SetPriority(t, p)
}

// IsAbovePriorityCutoff reports whether the texture is entitled to a backing
// this frame.
func (t *Texture) IsAbovePriorityCutoff() bool {
	if m := t.manager.Load(); m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return t.abovePriorityCutoff
}

// IsSelfManaged reports whether the texture's memory is managed by the client.
func (t *Texture) IsSelfManaged() bool {
	if m := t.manager.Load(); m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return t.selfManaged
}

// SetIsSelfManaged marks the texture as managed by the client. Self-managed
// textures never receive a backing, but their bytes are charged against the
// budget when they are prioritized.
func (t *Texture) SetIsSelfManaged(selfManaged bool) {
	if m := t.manager.Load(); m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if selfManaged {
			m.returnBackingLocked(t)
		}
	}
	t.selfManaged = selfManaged
}

// HaveBackingTexture reports whether GPU memory is currently attached.
func (t *Texture) HaveBackingTexture() bool {
	if m := t.manager.Load(); m != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return t.backing != 0
}

// Backing returns the attached backing, or nil.
// The returned value is owned by the manager and must not be retained
// across frames.
func (t *Texture) Backing() *Backing {
	m := t.manager.Load()
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backings[t.backing]
}

// BackingResource returns the provider resource of the attached backing.
// ok is false when the texture has no backing.
func (t *Texture) BackingResource() (id ResourceID, ok bool) {
	if b := t.Backing(); b != nil {
		return b.resource, true
	}
	return 0, false
}

// SetDimensions changes the requested size and format. If either changes,
// the current backing is returned to the manager.
func (t *Texture) SetDimensions(size image.Point, format gputypes.TextureFormat) error {
	if err := validateDimensions(size, format, 0); err != nil {
		return err
	}
	m := t.manager.Load()
	if m == nil {
		return ErrForeignTexture
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validateDimensions(size, format, m.maxTextureSize); err != nil {
		return err
	}
	if t.size == size && t.format == format {
		return nil
	}
	m.returnBackingLocked(t)
	bytes := MemorySizeBytes(size, format)
	if t.abovePriorityCutoff && !t.selfManaged {
		m.memoryAboveCutoffBytes += bytes - t.bytes
	}
	t.size = size
	t.format = format
	t.bytes = bytes
	m.debugCheckLocked("SetDimensions")
	return nil
}

// RequestLate asks for a backing after PrioritizeTextures ran.
// See Manager.RequestLate.
func (t *Texture) RequestLate() bool {
	m := t.manager.Load()
	if m == nil {
		return false
	}
	return m.RequestLate(t)
}

// AcquireBackingTexture attaches GPU memory if the texture is entitled to it.
// See Manager.AcquireBackingTextureIfNeeded.
func (t *Texture) AcquireBackingTexture(rp ResourceProvider) error {
	m := t.manager.Load()
	if m == nil {
		return ErrForeignTexture
	}
	return m.AcquireBackingTextureIfNeeded(t, rp)
}

// ReturnBackingTexture gives the backing back to the manager, which keeps it
// for recycling until it is needed or evicted.
func (t *Texture) ReturnBackingTexture() {
	if m := t.manager.Load(); m != nil {
		m.ReturnBackingTexture(t)
	}
}

// Release unregisters the texture from its manager. An attached backing is
// kept by the manager as an orphan for possible reuse. Release is idempotent.
func (t *Texture) Release() {
	if m := t.manager.Load(); m != nil {
		m.unregisterTexture(t)
	}
}
