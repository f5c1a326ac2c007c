// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import "github.com/gogpu/compositor"

// ClipNodeData is a clip rectangle and its accumulated result.
type ClipNodeData struct {
	// Clip is in the space of transform node TransformID.
	Clip compositor.Rect
	// CombinedClip is the intersection of Clip with every ancestor clip,
	// in the space of transform node TargetID.
	CombinedClip compositor.Rect

	TransformID int
	TargetID    int
}

// ClipNode is a node of a ClipTree.
type ClipNode = TreeNode[ClipNodeData]

// ClipTree is a property tree of clip rectangles.
type ClipTree struct {
	PropertyTree[ClipNodeData]
}

// Clone returns an independent copy.
func (c *ClipTree) Clone() *ClipTree {
	return &ClipTree{PropertyTree: c.PropertyTree.Clone()}
}

// UpdateCombinedClip recomputes node id's CombinedClip: its own clip mapped
// into the target space, intersected with the parent's combined clip when
// the parent has the same target. The parent must already be up to date.
//
// It returns false if a singular transform was involved; CombinedClip is
// then empty.
func (c *ClipTree) UpdateCombinedClip(id int, transforms *TransformTree) bool {
	n := c.Node(id)
	if n == nil {
		return false
	}
	d := &n.Data

	m, ok := transforms.ComputeTransform(d.TransformID, d.TargetID)
	if !ok {
		d.CombinedClip = compositor.Rect{}
		return false
	}
	combined := m.MapRect(d.Clip)

	// Ancestor clips apply only up to the target: a node that starts a
	// new target space is not clipped by clips of the enclosing one.
	if p := c.Parent(n); p != nil && p.Data.TargetID == d.TargetID {
		combined = combined.Intersect(p.Data.CombinedClip)
	}
	d.CombinedClip = combined
	return true
}

// UpdateAll recomputes every combined clip in ID order. It reports whether
// all nodes were computed from invertible transforms.
func (c *ClipTree) UpdateAll(transforms *TransformTree) bool {
	ok := true
	for id := range c.Size() {
		if !c.UpdateCombinedClip(id, transforms) {
			ok = false
		}
	}
	return ok
}
