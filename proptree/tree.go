// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package proptree implements property trees: flat forests that encode the
// transform and clip hierarchy of a layer tree by parent index.
//
// Trees are rebuilt wholesale on every layer tree commit. Nodes are only
// appended; Clear drops them all. Parents must be inserted before their
// children, so iterating IDs in increasing order always visits a parent
// before its descendants.
package proptree

import "fmt"

// NoNode is the ID used for "no parent" and "no node".
const NoNode = -1

// TreeNode is one entry of a PropertyTree.
type TreeNode[T any] struct {
	ID       int
	ParentID int
	Data     T
}

// PropertyTree is an append-only forest stored in a slice. Node IDs are
// slice indices.
//
// Pointers returned by Node, Parent and Back are invalidated by Insert and
// Clear.
type PropertyTree[T any] struct {
	nodes []TreeNode[T]
}

// Insert appends node under parentID and returns the new node's ID.
// parentID must be NoNode or an existing node; anything else is a
// programming error and panics.
func (t *PropertyTree[T]) Insert(node TreeNode[T], parentID int) int {
	if parentID != NoNode && (parentID < 0 || parentID >= len(t.nodes)) {
		panic(fmt.Sprintf("proptree: parent %d does not exist (size %d)", parentID, len(t.nodes)))
	}
	node.ID = len(t.nodes)
	node.ParentID = parentID
	t.nodes = append(t.nodes, node)
	return node.ID
}

// Node returns the node with the given ID, or nil if there is none.
func (t *PropertyTree[T]) Node(id int) *TreeNode[T] {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Parent returns n's parent, or nil for roots.
func (t *PropertyTree[T]) Parent(n *TreeNode[T]) *TreeNode[T] {
	if n == nil {
		return nil
	}
	return t.Node(n.ParentID)
}

// Back returns the most recently inserted node, or nil if the tree is empty.
func (t *PropertyTree[T]) Back() *TreeNode[T] {
	if len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[len(t.nodes)-1]
}

// Clear drops every node. The backing storage is kept for the next rebuild.
func (t *PropertyTree[T]) Clear() {
	clear(t.nodes)
	t.nodes = t.nodes[:0]
}

// Size returns the number of nodes.
func (t *PropertyTree[T]) Size() int {
	return len(t.nodes)
}

// Clone returns an independent copy, used to hand a finished tree to
// another consumer. Node data is copied by value.
func (t *PropertyTree[T]) Clone() PropertyTree[T] {
	nodes := make([]TreeNode[T], len(t.nodes))
	copy(nodes, t.nodes)
	return PropertyTree[T]{nodes: nodes}
}

// depth returns the number of ancestors of id.
func (t *PropertyTree[T]) depth(id int) int {
	d := 0
	for n := t.Node(id); n != nil && n.ParentID != NoNode; n = t.Node(n.ParentID) {
		d++
	}
	return d
}

// IsDescendant reports whether desc is anc or lies below it.
func (t *PropertyTree[T]) IsDescendant(desc, anc int) bool {
	for desc != anc {
		n := t.Node(desc)
		if n == nil {
			return false
		}
		desc = n.ParentID
	}
	return true
}

// LowestCommonAncestor returns the deepest node that is an ancestor of
// both a and b (a node counts as its own ancestor), or NoNode when they
// live in different trees of the forest.
func (t *PropertyTree[T]) LowestCommonAncestor(a, b int) int {
	if t.Node(a) == nil || t.Node(b) == nil {
		return NoNode
	}
	da, db := t.depth(a), t.depth(b)
	for ; da > db; da-- {
		a = t.nodes[a].ParentID
	}
	for ; db > da; db-- {
		b = t.nodes[b].ParentID
	}
	for a != b {
		a = t.nodes[a].ParentID
		b = t.nodes[b].ParentID
		if a == NoNode || b == NoNode {
			return NoNode
		}
	}
	return a
}
