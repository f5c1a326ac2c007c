// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics collects per-frame overdraw statistics: how many pixels
// were painted, uploaded and drawn, and how much texture memory backed them.
package metrics

import (
	"context"
	"image"
	"log/slog"

	"github.com/gogpu/compositor"
)

// Kind selects which half of the frame Record reports.
type Kind int

const (
	// UpdateAndCommit reports painting, uploads and texture memory.
	UpdateAndCommit Kind = iota
	// DrawingToScreen reports drawn and culled pixels.
	DrawingToScreen
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case UpdateAndCommit:
		return "update_and_commit"
	case DrawingToScreen:
		return "drawing_to_screen"
	default:
		return "unknown"
	}
}

// OverdrawMetrics accumulates pixel and memory counts for one frame.
// When created with record false every method is a no-op.
//
// Areas of transformed rectangles are the areas of the mapped quads, so
// rotated content is not overcounted by its bounding box.
type OverdrawMetrics struct {
	record bool

	pixelsPainted             float64
	pixelsUploadedOpaque      float64
	pixelsUploadedTranslucent float64
	tilesCulledForUpload      int
	contentsTextureUseBytes   uint64
	renderSurfaceUseBytes     uint64

	pixelsDrawnOpaque      float64
	pixelsDrawnTranslucent float64
	pixelsCulledForDrawing float64
}

// New returns metrics for one frame.
func New(record bool) *OverdrawMetrics {
	return &OverdrawMetrics{record: record}
}

// Recording reports whether the metrics are collected.
func (o *OverdrawMetrics) Recording() bool { return o.record }

func mappedArea(m compositor.Matrix, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	return m.MapQuad(compositor.RectFromImage(r)).Area()
}

// DidPaint records pixels painted into a texture updater. They were not
// necessarily rasterized.
func (o *OverdrawMetrics) DidPaint(painted image.Rectangle) {
	if !o.record || painted.Empty() {
		return
	}
	o.pixelsPainted += float64(painted.Dx()) * float64(painted.Dy())
}

// DidCullTileForUpload records an invalid tile that did not need painting
// or uploading.
func (o *OverdrawMetrics) DidCullTileForUpload() {
	if o.record {
		o.tilesCulledForUpload++
	}
}

// DidUpload records pixels uploaded to texture memory. The part of upload
// covered by opaque counts as opaque.
func (o *OverdrawMetrics) DidUpload(toTarget compositor.Matrix, upload, opaque image.Rectangle) {
	if !o.record {
		return
	}
	area := mappedArea(toTarget, upload)
	opaqueArea := mappedArea(toTarget, opaque.Intersect(upload))
	o.pixelsUploadedOpaque += opaqueArea
	o.pixelsUploadedTranslucent += area - opaqueArea
}

// DidUseContentsTextureMemoryBytes records bytes of contents textures
// present this frame.
func (o *OverdrawMetrics) DidUseContentsTextureMemoryBytes(n int) {
	if o.record && n > 0 {
		o.contentsTextureUseBytes += uint64(n)
	}
}

// DidUseRenderSurfaceTextureMemoryBytes records bytes of render surface
// textures present this frame.
func (o *OverdrawMetrics) DidUseRenderSurfaceTextureMemoryBytes(n int) {
	if o.record && n > 0 {
		o.renderSurfaceUseBytes += uint64(n)
	}
}

// DidCullForDrawing records pixels that were occluded and not drawn.
func (o *OverdrawMetrics) DidCullForDrawing(toTarget compositor.Matrix, beforeCull, afterCull image.Rectangle) {
	if !o.record {
		return
	}
	o.pixelsCulledForDrawing += mappedArea(toTarget, beforeCull) - mappedArea(toTarget, afterCull)
}

// DidDraw records pixels drawn to the screen. The part of afterCull covered
// by opaque counts as opaque and may occlude what is below it.
func (o *OverdrawMetrics) DidDraw(toTarget compositor.Matrix, afterCull, opaque image.Rectangle) {
	if !o.record {
		return
	}
	area := mappedArea(toTarget, afterCull)
	opaqueArea := mappedArea(toTarget, opaque.Intersect(afterCull))
	o.pixelsDrawnOpaque += opaqueArea
	o.pixelsDrawnTranslucent += area - opaqueArea
}

func (o *OverdrawMetrics) PixelsPainted() float64             { return o.pixelsPainted }
func (o *OverdrawMetrics) PixelsUploadedOpaque() float64      { return o.pixelsUploadedOpaque }
func (o *OverdrawMetrics) PixelsUploadedTranslucent() float64 { return o.pixelsUploadedTranslucent }
func (o *OverdrawMetrics) TilesCulledForUpload() int          { return o.tilesCulledForUpload }
func (o *OverdrawMetrics) ContentsTextureUseBytes() uint64    { return o.contentsTextureUseBytes }
func (o *OverdrawMetrics) RenderSurfaceUseBytes() uint64      { return o.renderSurfaceUseBytes }
func (o *OverdrawMetrics) PixelsDrawnOpaque() float64         { return o.pixelsDrawnOpaque }
func (o *OverdrawMetrics) PixelsDrawnTranslucent() float64    { return o.pixelsDrawnTranslucent }
func (o *OverdrawMetrics) PixelsCulledForDrawing() float64    { return o.pixelsCulledForDrawing }

// Record emits one log record for kind. Pixel counts are also reported as
// a percentage of the viewport area. A nil logger uses compositor.Logger().
func (o *OverdrawMetrics) Record(kind Kind, viewport image.Point, log *slog.Logger) {
	if !o.record {
		return
	}
	if log == nil {
		log = compositor.Logger()
	}

	norm := float64(viewport.X) * float64(viewport.Y)
	percent := func(v float64) float64 {
		if norm <= 0 {
			return 0
		}
		return v / norm * 100
	}

	var attrs []slog.Attr
	switch kind {
	case UpdateAndCommit:
		attrs = []slog.Attr{
			slog.Float64("painted_pct", percent(o.pixelsPainted)),
			slog.Float64("uploaded_opaque_pct", percent(o.pixelsUploadedOpaque)),
			slog.Float64("uploaded_translucent_pct", percent(o.pixelsUploadedTranslucent)),
			slog.Int("tiles_culled_for_upload", o.tilesCulledForUpload),
			slog.Uint64("contents_texture_bytes", o.contentsTextureUseBytes),
			slog.Uint64("render_surface_texture_bytes", o.renderSurfaceUseBytes),
		}
	case DrawingToScreen:
		attrs = []slog.Attr{
			slog.Float64("drawn_opaque_pct", percent(o.pixelsDrawnOpaque)),
			slog.Float64("drawn_translucent_pct", percent(o.pixelsDrawnTranslucent)),
			slog.Float64("culled_pct", percent(o.pixelsCulledForDrawing)),
		}
	}
	log.LogAttrs(context.Background(), slog.LevelDebug, "overdraw: "+kind.String(), attrs...)
}
