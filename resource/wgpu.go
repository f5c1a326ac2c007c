// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/texture"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// ErrUnsupportedDevice is returned when the host's device is not a
// *wgpu.Device.
var ErrUnsupportedDevice = errors.New("resource: device provider does not expose a *wgpu.Device")

// DefaultTextureUsage is used when WGPUOptions.Usage is zero: tiles are
// uploaded to, sampled from and rendered into.
const DefaultTextureUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageRenderAttachment

// WGPUOptions configures a WGPUProvider.
type WGPUOptions struct {
	// Label prefixes every texture's debug label.
	Label string
	// Usage of created textures. Defaults to DefaultTextureUsage.
	Usage gputypes.TextureUsage
}

// WGPUProvider allocates backings as wgpu textures on the device of a host
// application. It receives the device, it never creates one.
//
// WGPUProvider is safe for concurrent use.
type WGPUProvider struct {
	device *wgpu.Device
	label  string
	usage  gputypes.TextureUsage

	mu       sync.RWMutex
	next     texture.ResourceID
	textures map[texture.ResourceID]*wgpu.Texture
}

// NewWGPUProvider wraps the device of dp.
func NewWGPUProvider(dp gpucontext.DeviceProvider, opts WGPUOptions) (*WGPUProvider, error) {
	if dp == nil {
		return nil, ErrUnsupportedDevice
	}
	device, ok := dp.Device().(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w (got %T)", ErrUnsupportedDevice, dp.Device())
	}
	if opts.Usage == 0 {
		opts.Usage = DefaultTextureUsage
	}
	if opts.Label == "" {
		opts.Label = "compositor"
	}
	compositor.Logger().Debug("resource: wgpu provider ready",
		"adapter", dp.AdapterInfo().Name, "usage", uint32(opts.Usage))
	return &WGPUProvider{
		device:   device,
		label:    opts.Label,
		usage:    opts.Usage,
		textures: make(map[texture.ResourceID]*wgpu.Texture),
	}, nil
}

// CreateResource creates a 2D texture with one mip level and one sample.
// The pool is recorded in the debug label.
func (p *WGPUProvider) CreateResource(pool int, size image.Point, format gputypes.TextureFormat) (texture.ResourceID, error) {
	if size.X <= 0 || size.Y <= 0 {
		return 0, fmt.Errorf("resource: texture dimensions must be positive, got %dx%d", size.X, size.Y)
	}

	p.mu.Lock()
	p.next++
	id := p.next
	p.mu.Unlock()

	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: fmt.Sprintf("%s-pool%d-tex%d", p.label, pool, id),
		Size: wgpu.Extent3D{
			Width:              uint32(size.X),
			Height:             uint32(size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         p.usage,
	})
	if err != nil {
		return 0, fmt.Errorf("resource: failed to create texture: %w", err)
	}

	p.mu.Lock()
	p.textures[id] = tex
	p.mu.Unlock()
	return id, nil
}

// DeleteResource releases the texture behind id.
func (p *WGPUProvider) DeleteResource(id texture.ResourceID) {
	p.mu.Lock()
	tex, ok := p.textures[id]
	if ok {
		delete(p.textures, id)
	}
	p.mu.Unlock()

	if ok {
		tex.Release()
	}
}

// Texture returns the wgpu texture for id, or nil.
func (p *WGPUProvider) Texture(id texture.ResourceID) *wgpu.Texture {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.textures[id]
}

// Len returns the number of live textures.
func (p *WGPUProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.textures)
}
