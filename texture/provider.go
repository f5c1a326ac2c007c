// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"image"

	"github.com/gogpu/gputypes"
)

// ResourceID identifies a GPU allocation owned by a ResourceProvider.
// Zero is never a valid resource.
type ResourceID uint64

// ResourceProvider allocates and releases the GPU storage behind backings.
//
// The manager calls these methods synchronously from createBacking and
// destroyBacking and updates its own bookkeeping immediately. Providers may
// defer the actual GPU work. CreateResource errors are surfaced to the caller
// of AcquireBackingTextureIfNeeded; DeleteResource cannot fail from the
// manager's point of view.
type ResourceProvider interface {
	// CreateResource allocates storage of the given size and format in pool.
	CreateResource(pool int, size image.Point, format gputypes.TextureFormat) (ResourceID, error)

	// DeleteResource releases storage previously returned by CreateResource.
	DeleteResource(id ResourceID)
}
