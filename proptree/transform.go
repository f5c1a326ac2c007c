// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/internal/cache"
)

// transformCacheSize bounds the memoized ComputeTransform results.
const transformCacheSize = 256

// TransformNodeData describes how one node's space relates to its parent's.
type TransformNodeData struct {
	// ToParent maps this node's space into its parent's space.
	ToParent compositor.Matrix
	// FromParent is the inverse of ToParent, or identity when ToParent is
	// singular.
	FromParent compositor.Matrix

	// ToScreen and FromScreen are refreshed by UpdateScreenSpaceTransform.
	ToScreen   compositor.Matrix
	FromScreen compositor.Matrix

	// TargetID is the transform node of the render target this node draws
	// into.
	TargetID int

	IsInvertible           bool
	AncestorsAreInvertible bool

	IsAnimated         bool
	ToScreenIsAnimated bool

	// Flattens reports whether the node's content is flattened into its
	// parent's plane before compositing.
	Flattens bool
}

// NewTransformNodeData returns data for an identity node.
func NewTransformNodeData() TransformNodeData {
	return TransformNodeData{
		ToParent:               compositor.Identity(),
		FromParent:             compositor.Identity(),
		ToScreen:               compositor.Identity(),
		FromScreen:             compositor.Identity(),
		TargetID:               NoNode,
		IsInvertible:           true,
		AncestorsAreInvertible: true,
	}
}

// SetToParent replaces ToParent and recomputes FromParent and IsInvertible.
func (d *TransformNodeData) SetToParent(m compositor.Matrix) {
	d.ToParent = m
	d.FromParent, d.IsInvertible = m.Inverse()
}

// TransformNode is a node of a TransformTree.
type TransformNode = TreeNode[TransformNodeData]

type nodePair struct{ src, dst int }

type composed struct {
	m  compositor.Matrix
	ok bool
}

// TransformTree is a property tree of 2D affine transforms.
//
// ComputeTransform results are memoized. The memo is dropped by Insert,
// Clear and SetToParent, so ToParent must only be changed through
// SetToParent once a node is in the tree.
type TransformTree struct {
	PropertyTree[TransformNodeData]
	memo *cache.Cache[nodePair, composed]
}

// NewTransformTree creates an empty transform tree.
func NewTransformTree() *TransformTree {
	return &TransformTree{memo: cache.New[nodePair, composed](transformCacheSize)}
}

// Insert appends a node. FromParent and IsInvertible are derived from
// ToParent.
func (t *TransformTree) Insert(node TransformNode, parentID int) int {
	node.Data.SetToParent(node.Data.ToParent)
	id := t.PropertyTree.Insert(node, parentID)
	t.invalidate()
	return id
}

// Clear drops every node.
func (t *TransformTree) Clear() {
	t.PropertyTree.Clear()
	t.invalidate()
}

// SetToParent changes a node's local transform.
// Screen space transforms of the node and its descendants become stale
// until UpdateScreenSpaceTransform is run for them.
func (t *TransformTree) SetToParent(id int, m compositor.Matrix) bool {
	n := t.Node(id)
	if n == nil {
		return false
	}
	n.Data.SetToParent(m)
	t.invalidate()
	return true
}

// Clone returns an independent copy with an empty memo.
func (t *TransformTree) Clone() *TransformTree {
	c := NewTransformTree()
	c.PropertyTree = t.PropertyTree.Clone()
	return c
}

// MemoStats reports the ComputeTransform memo counters.
func (t *TransformTree) MemoStats() cache.Stats {
	return t.memoCache().Stats()
}

func (t *TransformTree) memoCache() *cache.Cache[nodePair, composed] {
	if t.memo == nil {
		t.memo = cache.New[nodePair, composed](transformCacheSize)
	}
	return t.memo
}

func (t *TransformTree) invalidate() {
	if t.memo != nil {
		t.memo.Clear()
	}
}

// ComputeTransform returns the change of basis from node src's space to
// node dst's space. ok is false if the inverse of a singular transform was
// needed, in which case the matrix must not be trusted, or if either node
// does not exist.
//
// Nodes in different trees of the forest are related through their roots'
// parent space.
func (t *TransformTree) ComputeTransform(src, dst int) (m compositor.Matrix, ok bool) {
	if t.Node(src) == nil || t.Node(dst) == nil {
		return compositor.Identity(), false
	}
	if src == dst {
		return compositor.Identity(), true
	}
	c := t.memoCache().GetOrCreate(nodePair{src, dst}, func() composed {
		lca := t.LowestCommonAncestor(src, dst)
		up := t.combineTransformsBetween(src, lca)
		down, ok := t.combineInversesBetween(dst, lca)
		return composed{m: down.Multiply(up), ok: ok}
	})
	return c.m, c.ok
}

// combineTransformsBetween maps from src's space into the space of
// ancestor anc (NoNode for the root's parent space).
func (t *TransformTree) combineTransformsBetween(src, anc int) compositor.Matrix {
	m := compositor.Identity()
	for id := src; id != anc; {
		n := t.Node(id)
		m = n.Data.ToParent.Multiply(m)
		id = n.ParentID
	}
	return m
}

// combineInversesBetween maps from ancestor anc's space into dst's space.
func (t *TransformTree) combineInversesBetween(dst, anc int) (compositor.Matrix, bool) {
	m := compositor.Identity()
	ok := true
	for id := dst; id != anc; {
		n := t.Node(id)
		m = m.Multiply(n.Data.FromParent)
		ok = ok && n.Data.IsInvertible
		id = n.ParentID
	}
	return m, ok
}

// Are2DAxisAligned reports whether src and dst are 2D axis aligned with
// respect to one another: the transform between them exists and maps
// axis-aligned rectangles to axis-aligned rectangles.
func (t *TransformTree) Are2DAxisAligned(src, dst int) bool {
	m, ok := t.ComputeTransform(src, dst)
	return ok && m.Preserves2DAxisAlignment()
}

// UpdateScreenSpaceTransform recomputes ToScreen and FromScreen for node id
// from its parent's screen space transform. Callers must update parents
// before children.
func (t *TransformTree) UpdateScreenSpaceTransform(id int) {
	n := t.Node(id)
	if n == nil {
		return
	}
	d := &n.Data
	if p := t.Parent(n); p != nil {
		d.ToScreen = p.Data.ToScreen.Multiply(d.ToParent)
		d.AncestorsAreInvertible = p.Data.AncestorsAreInvertible && p.Data.IsInvertible
		d.ToScreenIsAnimated = d.IsAnimated || p.Data.ToScreenIsAnimated
	} else {
		d.ToScreen = d.ToParent
		d.AncestorsAreInvertible = true
		d.ToScreenIsAnimated = d.IsAnimated
	}
	var inv bool
	if d.FromScreen, inv = d.ToScreen.Inverse(); !inv {
		d.AncestorsAreInvertible = false
	}
}

// UpdateAll refreshes every node's screen space transform in ID order.
func (t *TransformTree) UpdateAll() {
	for id := range t.Size() {
		t.UpdateScreenSpaceTransform(id)
	}
}
