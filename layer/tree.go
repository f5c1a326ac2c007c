// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package layer drives the texture manager and property trees from a tree of
// tiled layers, the way a compositor does once per frame.
//
// Commit rebuilds the transform and clip trees wholesale from the layer
// hierarchy and computes tile priorities from their distance to the
// viewport. Frame then runs the manager's four phases and records overdraw
// metrics for what would be drawn.
package layer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/metrics"
	"github.com/gogpu/compositor/priority"
	"github.com/gogpu/compositor/proptree"
	"github.com/gogpu/compositor/texture"
	"github.com/gogpu/gputypes"
)

// DefaultTileSize is the tile edge length used when Config.TileSize is 0.
const DefaultTileSize = 256

// Config configures a Tree.
type Config struct {
	// Viewport is the visible area in screen space.
	Viewport image.Rectangle
	// TileSize is the tile edge length in pixels. Defaults to DefaultTileSize.
	TileSize int
	// Format of tile textures. Defaults to RGBA8Unorm.
	Format gputypes.TextureFormat
	// RecordMetrics enables overdraw metrics in Frame.
	RecordMetrics bool
	// Logger defaults to compositor.Logger().
	Logger *slog.Logger
}

// Tree is a layer hierarchy bound to a texture manager.
// Tree is not safe for concurrent use.
type Tree struct {
	manager  *texture.Manager
	viewport image.Rectangle
	tileSize int
	format   gputypes.TextureFormat
	record   bool
	log      *slog.Logger

	roots []*Layer
	dirty bool

	transforms *proptree.TransformTree
	clips      *proptree.ClipTree
	screenID   int
	frame      uint64
}

// NewTree creates an empty layer tree whose tiles are managed by m.
func NewTree(m *texture.Manager, cfg Config) *Tree {
	if cfg.TileSize <= 0 {
		cfg.TileSize = DefaultTileSize
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatRGBA8Unorm
	}
	log := cfg.Logger
	if log == nil {
		log = compositor.Logger()
	}
	return &Tree{
		manager:    m,
		viewport:   cfg.Viewport,
		tileSize:   cfg.TileSize,
		format:     cfg.Format,
		record:     cfg.RecordMetrics,
		log:        log,
		dirty:      true,
		transforms: proptree.NewTransformTree(),
		clips:      &proptree.ClipTree{},
		screenID:   proptree.NoNode,
	}
}

// NewLayer adds a layer of the given content size under parent, or as a
// root when parent is nil.
func (t *Tree) NewLayer(parent *Layer, size image.Point) *Layer {
	l := &Layer{
		tree:        t,
		parent:      parent,
		size:        size,
		transform:   compositor.Identity(),
		transformID: proptree.NoNode,
		clipID:      proptree.NoNode,
	}
	if parent != nil {
		parent.children = append(parent.children, l)
	} else {
		t.roots = append(t.roots, l)
	}
	t.dirty = true
	return l
}

// Manager returns the texture manager.
func (t *Tree) Manager() *texture.Manager { return t.manager }

// Transforms returns the transform tree built by the last Commit.
func (t *Tree) Transforms() *proptree.TransformTree { return t.transforms }

// Clips returns the clip tree built by the last Commit.
func (t *Tree) Clips() *proptree.ClipTree { return t.clips }

// ScreenID returns the transform node of screen space.
func (t *Tree) ScreenID() int { return t.screenID }

// Viewport returns the visible area in screen space.
func (t *Tree) Viewport() image.Rectangle { return t.viewport }

// SetViewport moves or resizes the visible area.
func (t *Tree) SetViewport(r image.Rectangle) {
	t.viewport = r
	t.dirty = true
}

// Layers returns every layer with parents before children.
func (t *Tree) Layers() []*Layer {
	var out []*Layer
	t.each(func(l *Layer) { out = append(out, l) })
	return out
}

func (t *Tree) each(fn func(*Layer)) {
	var walk func(*Layer)
	walk = func(l *Layer) {
		fn(l)
		for _, c := range l.children {
			walk(c)
		}
	}
	for _, l := range t.roots {
		walk(l)
	}
}

// Advance steps running animations by dt seconds and reports whether any
// is still running.
func (t *Tree) Advance(dt float32) bool {
	running := false
	t.each(func(l *Layer) {
		if l.anim == nil {
			return
		}
		l.offset = l.anim.update(dt)
		if l.anim.done {
			l.anim = nil
		} else {
			running = true
		}
		t.dirty = true
	})
	return running
}

// Commit rebuilds the property trees from the layer hierarchy and computes
// tile priorities.
func (t *Tree) Commit() error {
	t.transforms.Clear()
	t.clips.Clear()

	t.screenID = t.transforms.Insert(proptree.TransformNode{Data: proptree.NewTransformNodeData()}, proptree.NoNode)
	rootClip := t.clips.Insert(proptree.ClipNode{Data: proptree.ClipNodeData{
		Clip:        compositor.RectFromImage(t.viewport),
		TransformID: t.screenID,
		TargetID:    t.screenID,
	}}, proptree.NoNode)

	for _, l := range t.roots {
		if err := t.commitLayer(l, t.screenID, rootClip, false); err != nil {
			return err
		}
	}

	t.transforms.UpdateAll()
	if !t.clips.UpdateAll(t.transforms) {
		t.log.Debug("layer: clip through singular transform")
	}

	t.each(func(l *Layer) {
		t.updateVisibility(l)
		toScreen := t.transforms.Node(l.transformID).Data.ToScreen
		l.updatePriorities(toScreen, t.viewport)
	})
	t.dirty = false
	return nil
}

func (t *Tree) commitLayer(l *Layer, parentTransform, parentClip int, hidden bool) error {
	d := proptree.NewTransformNodeData()
	d.ToParent = l.localTransform()
	d.TargetID = t.screenID
	d.IsAnimated = l.anim != nil
	l.transformID = t.transforms.Insert(proptree.TransformNode{Data: d}, parentTransform)

	l.clipID = parentClip
	if l.masksToBounds {
		l.clipID = t.clips.Insert(proptree.ClipNode{Data: proptree.ClipNodeData{
			Clip:        rectOf(l.size),
			TransformID: l.transformID,
			TargetID:    t.screenID,
		}}, parentClip)
	}
	l.effectivelyHidden = hidden || l.hidden

	if err := l.ensureTiles(); err != nil {
		return fmt.Errorf("layer: tiles for %v layer: %w", l.size, err)
	}
	for _, c := range l.children {
		if err := t.commitLayer(c, l.transformID, l.clipID, l.effectivelyHidden); err != nil {
			return err
		}
	}
	return nil
}

// updateVisibility maps the layer's combined clip back into content space.
func (t *Tree) updateVisibility(l *Layer) {
	node := t.transforms.Node(l.transformID)
	l.screenRect = node.Data.ToScreen.MapRect(rectOf(l.size)).Enclosing()
	l.axisAligned = t.transforms.Are2DAxisAligned(l.transformID, t.screenID)
	l.visibleRect = image.Rectangle{}
	if l.effectivelyHidden {
		return
	}
	fromScreen, ok := t.transforms.ComputeTransform(t.screenID, l.transformID)
	if !ok {
		return
	}
	clip := t.clips.Node(l.clipID).Data.CombinedClip
	l.visibleRect = fromScreen.MapRect(clip).Intersect(rectOf(l.size)).Enclosing().Intersect(image.Rectangle{Max: l.size})
}

// FrameStats summarizes one Frame.
type FrameStats struct {
	Frame           uint64
	Layers          int
	Tiles           int
	Resident        int
	Visible         int
	VisibleResident int
	Uploads         int
	Manager         texture.Stats
	Overdraw        *metrics.OverdrawMetrics
}

// String returns a one-line summary.
func (s FrameStats) String() string {
	return fmt.Sprintf("frame %d: %d layers, %d/%d tiles resident, %d/%d visible resident, %d uploads",
		s.Frame, s.Layers, s.Resident, s.Tiles, s.VisibleResident, s.Visible, s.Uploads)
}

type tileRef struct {
	layer *Layer
	tile  *Tile
}

// Frame commits pending changes and runs one frame against rp: priorities
// are cleared and set, textures are prioritized, memory is reduced to the
// budget and tiles acquire backings, most important first. Allocation
// failures are joined into the returned error; the frame still completes.
func (t *Tree) Frame(rp texture.ResourceProvider) (FrameStats, error) {
	if t.dirty {
		if err := t.Commit(); err != nil {
			return FrameStats{}, err
		}
	}
	t.frame++

	var tiles []tileRef
	t.each(func(l *Layer) {
		for _, tile := range l.tiles {
			tiles = append(tiles, tileRef{l, tile})
		}
	})

	m := t.manager
	m.BeginFrame()
	for _, r := range tiles {
		if err := m.SetPriority(r.tile.texture, r.tile.priority); err != nil {
			return FrameStats{}, err
		}
	}
	m.EndFrame()
	m.ReduceMemory(rp)

	slices.SortStableFunc(tiles, func(a, b tileRef) int {
		switch {
		case priority.IsHigher(a.tile.priority, b.tile.priority):
			return -1
		case priority.IsLower(a.tile.priority, b.tile.priority):
			return 1
		}
		return 0
	})

	stats := FrameStats{Frame: t.frame, Tiles: len(tiles)}
	od := metrics.New(t.record)
	var errs []error
	for _, r := range tiles {
		if err := r.tile.texture.AcquireBackingTexture(rp); err != nil {
			errs = append(errs, err)
		}
		toScreen := t.transforms.Node(r.layer.transformID).Data.ToScreen
		visiblePart := r.tile.Rect.Intersect(r.layer.visibleRect)
		if !visiblePart.Empty() {
			stats.Visible++
		}

		res, resident := r.tile.texture.BackingResource()
		if !resident {
			r.tile.uploaded = 0
			od.DidCullTileForUpload()
			continue
		}
		stats.Resident++
		if r.tile.uploaded != res {
			od.DidPaint(r.tile.Rect)
			od.DidUpload(toScreen, r.tile.Rect, r.layer.opaqueRect(r.tile.Rect))
			r.tile.uploaded = res
			stats.Uploads++
		}
		if !visiblePart.Empty() {
			stats.VisibleResident++
			od.DidCullForDrawing(toScreen, r.tile.Rect, visiblePart)
			od.DidDraw(toScreen, visiblePart, r.layer.opaqueRect(visiblePart))
		}
	}

	stats.Layers = len(t.Layers())
	stats.Manager = m.Stats()
	od.DidUseContentsTextureMemoryBytes(stats.Manager.MemoryUseBytes)
	od.Record(metrics.UpdateAndCommit, t.viewport.Size(), t.log)
	od.Record(metrics.DrawingToScreen, t.viewport.Size(), t.log)
	stats.Overdraw = od

	t.log.Debug("layer: frame",
		"frame", stats.Frame,
		"tiles", stats.Tiles,
		"resident", stats.Resident,
		"visible", stats.Visible,
		"visible_resident", stats.VisibleResident,
		"use_bytes", stats.Manager.MemoryUseBytes)
	return stats, errors.Join(errs...)
}

// Close releases every layer's textures and frees all GPU memory.
func (t *Tree) Close(rp texture.ResourceProvider) {
	for _, l := range slices.Clone(t.roots) {
		l.Remove()
	}
	t.manager.ClearAllMemory(rp)
}
