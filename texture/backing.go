// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"image"

	"github.com/gogpu/compositor/priority"
	"github.com/gogpu/gputypes"
)

// BackingID identifies a backing inside its manager. Zero means "none".
type BackingID uint64

// Backing is a GPU allocation owned by a Manager.
//
// A backing is attached to at most one Texture at a time. When its owner
// is released or evicted the backing may stay alive without an owner
// (orphaned) so that a later texture of the same size and format can reuse it
// without a new allocation.
type Backing struct {
	id       BackingID
	resource ResourceID
	size     image.Point
	format   gputypes.TextureFormat
	bytes    int
	owner    *Texture
}

// ID returns the manager-assigned identifier.
func (b *Backing) ID() BackingID { return b.id }

// ResourceID returns the provider allocation behind this backing.
func (b *Backing) ResourceID() ResourceID { return b.resource }

// Size returns the allocation size in pixels.
func (b *Backing) Size() image.Point { return b.size }

// Format returns the pixel format.
func (b *Backing) Format() gputypes.TextureFormat { return b.format }

// Bytes returns the memory charged for this backing.
func (b *Backing) Bytes() int { return b.bytes }

// Owner returns the texture currently using this backing, or nil when orphaned.
func (b *Backing) Owner() *Texture { return b.owner }

// matches reports whether the backing can serve a texture of size and format.
func (b *Backing) matches(size image.Point, format gputypes.TextureFormat) bool {
	return b.size == size && b.format == format
}

// evictable reports whether the backing may be destroyed or recycled without
// taking memory from a texture that is entitled to it this frame.
func (b *Backing) evictable() bool {
	return b.owner == nil || !b.owner.abovePriorityCutoff
}

// ownerPriority returns the owner's priority, treating orphans as lowest.
func (b *Backing) ownerPriority() priority.Priority {
	if b.owner == nil {
		return priority.Lowest()
	}
	return b.owner.priority
}
