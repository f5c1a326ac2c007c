// Package ebitenres backs compositor textures with offscreen Ebitengine
// images.
package ebitenres

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/compositor/texture"
	"github.com/gogpu/gputypes"
	"github.com/hajimehoshi/ebiten/v2"
)

// ErrUnsupportedFormat is returned for formats other than 8-bit RGBA.
// Ebitengine images are always RGBA8.
var ErrUnsupportedFormat = errors.New("ebitenres: only RGBA8 formats are supported")

// Provider allocates unmanaged offscreen images. Unmanaged images are not
// packed into Ebitengine's internal atlas, so each one is a real texture and
// Deallocate releases its GPU memory right away.
//
// Provider is safe for concurrent use.
type Provider struct {
	mu     sync.Mutex
	next   texture.ResourceID
	images map[texture.ResourceID]*ebiten.Image
}

// New creates an empty provider.
func New() *Provider {
	return &Provider{images: make(map[texture.ResourceID]*ebiten.Image)}
}

// CreateResource allocates an image of the given size. pool is ignored.
func (p *Provider) CreateResource(_ int, size image.Point, format gputypes.TextureFormat) (texture.ResourceID, error) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if size.X <= 0 || size.Y <= 0 {
		return 0, fmt.Errorf("ebitenres: invalid size %dx%d", size.X, size.Y)
	}

	img := ebiten.NewImageWithOptions(
		image.Rect(0, 0, size.X, size.Y),
		&ebiten.NewImageOptions{Unmanaged: true},
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.images[p.next] = img
	return p.next, nil
}

// DeleteResource deallocates the image behind id.
func (p *Provider) DeleteResource(id texture.ResourceID) {
	p.mu.Lock()
	img, ok := p.images[id]
	delete(p.images, id)
	p.mu.Unlock()

	if ok {
		img.Deallocate()
	}
}

// Image returns the image for id, or nil. Callers draw into it and draw it
// to the screen; they must not deallocate it.
func (p *Provider) Image(id texture.ResourceID) *ebiten.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.images[id]
}

// Len returns the number of live images.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.images)
}
