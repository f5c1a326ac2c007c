// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"bytes"
	"image"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/compositor"
)

func TestOverdrawUpload(t *testing.T) {
	o := New(true)
	o.DidPaint(image.Rect(0, 0, 10, 10))
	o.DidUpload(compositor.Scale(2, 2), image.Rect(0, 0, 10, 10), image.Rect(5, 0, 20, 10))
	o.DidCullTileForUpload()
	o.DidCullTileForUpload()
	o.DidUseContentsTextureMemoryBytes(400)
	o.DidUseRenderSurfaceTextureMemoryBytes(100)

	if got := o.PixelsPainted(); got != 100 {
		t.Errorf("PixelsPainted() = %v, want 100", got)
	}
	// 10x10 scaled by 2 is 400 pixels; the opaque half is 200.
	if got := o.PixelsUploadedOpaque(); got != 200 {
		t.Errorf("PixelsUploadedOpaque() = %v, want 200", got)
	}
	if got := o.PixelsUploadedTranslucent(); got != 200 {
		t.Errorf("PixelsUploadedTranslucent() = %v, want 200", got)
	}
	if o.TilesCulledForUpload() != 2 {
		t.Errorf("TilesCulledForUpload() = %d, want 2", o.TilesCulledForUpload())
	}
	if o.ContentsTextureUseBytes() != 400 || o.RenderSurfaceUseBytes() != 100 {
		t.Error("texture byte counters wrong")
	}
}

func TestOverdrawDraw(t *testing.T) {
	o := New(true)
	rot := compositor.Rotate(math.Pi / 4)
	o.DidCullForDrawing(rot, image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 4))
	o.DidDraw(rot, image.Rect(0, 0, 10, 4), image.Rect(0, 0, 5, 4))

	near := func(got, want float64) bool { return math.Abs(got-want) < 1e-6 }
	if got := o.PixelsCulledForDrawing(); !near(got, 60) {
		t.Errorf("PixelsCulledForDrawing() = %v, want 60", got)
	}
	if got := o.PixelsDrawnOpaque(); !near(got, 20) {
		t.Errorf("PixelsDrawnOpaque() = %v, want 20", got)
	}
	if got := o.PixelsDrawnTranslucent(); !near(got, 20) {
		t.Errorf("PixelsDrawnTranslucent() = %v, want 20", got)
	}
}

func TestOverdrawDisabledIsNoop(t *testing.T) {
	o := New(false)
	o.DidPaint(image.Rect(0, 0, 10, 10))
	o.DidCullTileForUpload()
	o.DidUpload(compositor.Identity(), image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10))
	o.DidUseContentsTextureMemoryBytes(10)
	o.DidDraw(compositor.Identity(), image.Rect(0, 0, 10, 10), image.Rectangle{})

	if *o != (OverdrawMetrics{}) {
		t.Errorf("disabled metrics changed: %+v", *o)
	}

	var buf bytes.Buffer
	o.Record(DrawingToScreen, image.Pt(100, 100), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	if buf.Len() != 0 {
		t.Errorf("disabled metrics logged %q", buf.String())
	}
}

func TestOverdrawRecord(t *testing.T) {
	o := New(true)
	o.DidDraw(compositor.Identity(), image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10))

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o.Record(DrawingToScreen, image.Pt(20, 10), log)

	out := buf.String()
	for _, want := range []string{"overdraw: drawing_to_screen", "drawn_opaque_pct=50", "culled_pct=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Record output %q missing %q", out, want)
		}
	}
}
