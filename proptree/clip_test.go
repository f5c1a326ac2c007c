// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"testing"

	"github.com/gogpu/compositor"
)

func TestClipTreeCombinedClip(t *testing.T) {
	transforms := NewTransformTree()
	screen := transforms.Insert(transformNode(compositor.Identity()), NoNode)
	scrolled := transforms.Insert(transformNode(compositor.Translate(50, 0)), screen)
	scaled := transforms.Insert(transformNode(compositor.Scale(2, 2)), screen)

	var clips ClipTree
	root := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(0, 0, 100, 100),
		TransformID: screen,
		TargetID:    screen,
	}}, NoNode)
	// 80x80 at (50,0) in screen space; clipped by the root to 50x80.
	inner := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(0, 0, 80, 80),
		TransformID: scrolled,
		TargetID:    screen,
	}}, root)
	// Starts its own target, so the screen space clips above do not apply.
	surface := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(0, 0, 1000, 1000),
		TransformID: scaled,
		TargetID:    scaled,
	}}, inner)

	if !clips.UpdateAll(transforms) {
		t.Fatal("UpdateAll() reported a singular transform")
	}

	if got := clips.Node(root).Data.CombinedClip; got != compositor.NewRect(0, 0, 100, 100) {
		t.Errorf("root combined = %+v", got)
	}
	if got := clips.Node(inner).Data.CombinedClip; got != compositor.NewRect(50, 0, 50, 80) {
		t.Errorf("inner combined = %+v, want 50x80 at (50,0)", got)
	}
	if got := clips.Node(surface).Data.CombinedClip; got != compositor.NewRect(0, 0, 1000, 1000) {
		t.Errorf("surface combined = %+v, want its own clip 1000x1000", got)
	}
}

func TestClipTreeStopsAtTarget(t *testing.T) {
	transforms := NewTransformTree()
	screen := transforms.Insert(transformNode(compositor.Identity()), NoNode)
	surface := transforms.Insert(transformNode(compositor.Translate(5, 5)), screen)

	var clips ClipTree
	root := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(0, 0, 10, 10),
		TransformID: screen,
		TargetID:    screen,
	}}, NoNode)
	child := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(0, 0, 100, 100),
		TransformID: surface,
		TargetID:    surface,
	}}, root)
	// Same target as its parent: clipped by it again.
	grandchild := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(50, 50, 100, 100),
		TransformID: surface,
		TargetID:    surface,
	}}, child)

	if !clips.UpdateAll(transforms) {
		t.Fatal("UpdateAll() reported a singular transform")
	}
	if got := clips.Node(child).Data.CombinedClip; got != compositor.NewRect(0, 0, 100, 100) {
		t.Errorf("child combined = %+v, want 100x100 at origin", got)
	}
	if got := clips.Node(grandchild).Data.CombinedClip; got != compositor.NewRect(50, 50, 50, 50) {
		t.Errorf("grandchild combined = %+v, want 50x50 at (50,50)", got)
	}
}

func TestClipTreeSingularTransform(t *testing.T) {
	transforms := NewTransformTree()
	screen := transforms.Insert(transformNode(compositor.Identity()), NoNode)
	flat := transforms.Insert(transformNode(compositor.Scale(0, 0)), screen)

	var clips ClipTree
	id := clips.Insert(ClipNode{Data: ClipNodeData{
		Clip:        compositor.NewRect(0, 0, 10, 10),
		TransformID: screen,
		TargetID:    flat,
	}}, NoNode)

	if clips.UpdateCombinedClip(id, transforms) {
		t.Error("clip into a singular target should report false")
	}
	if !clips.Node(id).Data.CombinedClip.IsEmpty() {
		t.Error("combined clip should be empty")
	}
	if clips.UpdateCombinedClip(7, transforms) {
		t.Error("missing node should report false")
	}
}
