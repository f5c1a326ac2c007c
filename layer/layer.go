// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"image"
	"slices"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/priority"
	"github.com/gogpu/compositor/texture"
	"github.com/tanema/gween/ease"
)

// Tile is one texture-sized piece of a layer's content.
type Tile struct {
	// Rect is the tile's area in layer content space.
	Rect image.Rectangle

	texture  *texture.Texture
	priority priority.Priority
	// uploaded is the backing resource the content was last uploaded to.
	uploaded texture.ResourceID
}

// Texture returns the tile's texture handle.
func (t *Tile) Texture() *texture.Texture { return t.texture }

// Priority returns the priority computed by the last commit.
func (t *Tile) Priority() priority.Priority { return t.priority }

// Resident reports whether the tile currently has GPU memory.
func (t *Tile) Resident() bool { return t.texture.HaveBackingTexture() }

// Layer is a rectangle of tiled content positioned by a transform relative
// to its parent.
type Layer struct {
	tree     *Tree
	parent   *Layer
	children []*Layer

	size          image.Point
	transform     compositor.Matrix
	offset        compositor.Point
	masksToBounds bool
	opaque        bool
	hidden        bool
	anim          *translation

	effectivelyHidden bool
	axisAligned       bool

	transformID int
	clipID      int
	visibleRect image.Rectangle
	screenRect  image.Rectangle

	tiles []*Tile
}

// Parent returns the parent layer, or nil for a root layer.
func (l *Layer) Parent() *Layer { return l.parent }

// Children returns the child layers.
func (l *Layer) Children() []*Layer { return l.children }

// Size returns the content size in pixels.
func (l *Layer) Size() image.Point { return l.size }

// Tiles returns the layer's tiles in row-major order.
func (l *Layer) Tiles() []*Tile { return l.tiles }

// TransformID returns the layer's node in the tree's TransformTree.
// Valid after Commit.
func (l *Layer) TransformID() int { return l.transformID }

// VisibleRect returns the part of the content on screen, in content space.
// Valid after Commit.
func (l *Layer) VisibleRect() image.Rectangle { return l.visibleRect }

// ScreenRect returns the bounds of the layer on screen. Valid after Commit.
func (l *Layer) ScreenRect() image.Rectangle { return l.screenRect }

// AxisAligned reports whether the layer is axis aligned on screen, so that
// ScreenRect is exact. Valid after Commit.
func (l *Layer) AxisAligned() bool { return l.axisAligned }

// IsAnimated reports whether a translation animation is running.
func (l *Layer) IsAnimated() bool { return l.anim != nil }

// SetTransform sets the transform from layer space to parent space.
func (l *Layer) SetTransform(m compositor.Matrix) {
	l.transform = m
	l.tree.dirty = true
}

// SetMasksToBounds clips descendants to this layer's bounds.
func (l *Layer) SetMasksToBounds(v bool) {
	l.masksToBounds = v
	l.tree.dirty = true
}

// SetOpaque marks the content as fully opaque.
func (l *Layer) SetOpaque(v bool) { l.opaque = v }

// SetHidden hides the layer. Tiles of hidden layers linger: they keep
// their memory while the budget allows, but lose it before anything visible
// or nearby.
func (l *Layer) SetHidden(v bool) {
	l.hidden = v
	l.tree.dirty = true
}

// AnimateTranslation moves the layer's offset from from to to over
// duration seconds. A nil easing function is linear.
func (l *Layer) AnimateTranslation(from, to compositor.Point, duration float32, fn ease.TweenFunc) {
	l.anim = newTranslation(from, to, duration, fn)
	l.offset = from
	l.tree.dirty = true
}

// Remove detaches the layer and its subtree and releases their textures.
// Backings are kept by the manager for reuse.
func (l *Layer) Remove() {
	if l.parent != nil {
		l.parent.children = slices.DeleteFunc(l.parent.children, func(c *Layer) bool { return c == l })
	} else {
		l.tree.roots = slices.DeleteFunc(l.tree.roots, func(c *Layer) bool { return c == l })
	}
	l.release()
	l.tree.dirty = true
}

func (l *Layer) release() {
	for _, c := range l.children {
		c.release()
	}
	for _, t := range l.tiles {
		t.texture.Release()
	}
	l.tiles = nil
}

// localTransform is the transform node's to-parent matrix.
func (l *Layer) localTransform() compositor.Matrix {
	if l.offset == (compositor.Point{}) {
		return l.transform
	}
	return compositor.Translate(l.offset.X, l.offset.Y).Multiply(l.transform)
}

// ensureTiles creates tile textures covering the layer.
func (l *Layer) ensureTiles() error {
	if l.tiles != nil {
		return nil
	}
	ts := l.tree.tileSize
	for y := 0; y < l.size.Y; y += ts {
		for x := 0; x < l.size.X; x += ts {
			r := image.Rect(x, y, min(x+ts, l.size.X), min(y+ts, l.size.Y))
			tex, err := l.tree.manager.CreateTexture(r.Size(), l.tree.format)
			if err != nil {
				l.release()
				return err
			}
			l.tiles = append(l.tiles, &Tile{Rect: r, texture: tex, priority: priority.Lowest()})
		}
	}
	return nil
}

// updatePriorities computes tile priorities from the screen space distance
// to the viewport.
func (l *Layer) updatePriorities(toScreen compositor.Matrix, viewport image.Rectangle) {
	for _, t := range l.tiles {
		if l.effectivelyHidden {
			t.priority = priority.Lingering(t.priority)
			continue
		}
		var p priority.Priority
		if !t.Rect.Intersect(l.visibleRect).Empty() {
			p = priority.Visible(true)
		} else {
			onScreen := toScreen.MapRect(compositor.RectFromImage(t.Rect)).Enclosing()
			// A tile over the viewport but clipped out by an ancestor is
			// near, not visible.
			p = priority.FromDistanceValue(max(1, priority.ManhattanDistance(viewport, onScreen)))
		}
		if l.anim != nil {
			p = priority.Max(p, priority.SmallAnimatedLayerMin())
		}
		t.priority = p
	}
}

// opaqueRect returns the part of r known to be opaque.
func (l *Layer) opaqueRect(r image.Rectangle) image.Rectangle {
	if l.opaque {
		return r
	}
	return image.Rectangle{}
}

func rectOf(size image.Point) compositor.Rect {
	return compositor.RectFromImage(image.Rectangle{Max: size})
}
