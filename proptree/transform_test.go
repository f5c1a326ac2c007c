// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"math"
	"testing"

	"github.com/gogpu/compositor"
)

const tol = 1e-9

func transformNode(m compositor.Matrix) TransformNode {
	d := NewTransformNodeData()
	d.ToParent = m
	return TransformNode{Data: d}
}

// buildTransforms builds root(scale 2) with children a(translate 10,0)
// and b(rotate 90deg), and grandchild c(translate 0,5) under a.
func buildTransforms() (tree *TransformTree, root, a, b, c int) {
	tree = NewTransformTree()
	root = tree.Insert(transformNode(compositor.Scale(2, 2)), NoNode)
	a = tree.Insert(transformNode(compositor.Translate(10, 0)), root)
	b = tree.Insert(transformNode(compositor.Rotate(math.Pi/2)), root)
	c = tree.Insert(transformNode(compositor.Translate(0, 5)), a)
	return tree, root, a, b, c
}

func TestTransformNodeRoundTrip(t *testing.T) {
	tree, _, _, _, _ := buildTransforms()
	for id := range tree.Size() {
		d := tree.Node(id).Data
		if !d.IsInvertible {
			t.Fatalf("node %d not invertible", id)
		}
		if got := d.ToParent.Multiply(d.FromParent); !got.ApproxEqual(compositor.Identity(), tol) {
			t.Errorf("node %d: to_parent * from_parent = %+v, want identity", id, got)
		}
	}
}

func TestComputeTransformToAncestor(t *testing.T) {
	tree, root, _, _, c := buildTransforms()

	m, ok := tree.ComputeTransform(c, root)
	if !ok {
		t.Fatal("ComputeTransform(c, root) not ok")
	}
	// c's origin is (0,5) in a, (10,5) in root.
	if got := m.TransformPoint(compositor.Pt(0, 0)); got.Distance(compositor.Pt(10, 5)) > tol {
		t.Errorf("c origin in root = %v, want (10, 5)", got)
	}

	inv, ok := tree.ComputeTransform(root, c)
	if !ok {
		t.Fatal("ComputeTransform(root, c) not ok")
	}
	if got := inv.Multiply(m); !got.ApproxEqual(compositor.Identity(), tol) {
		t.Errorf("root->c * c->root = %+v, want identity", got)
	}
}

func TestComputeTransformMatchesCompositionThroughLCA(t *testing.T) {
	tree, root, _, b, c := buildTransforms()

	direct, ok := tree.ComputeTransform(c, b)
	if !ok {
		t.Fatal("ComputeTransform(c, b) not ok")
	}
	toLCA, ok1 := tree.ComputeTransform(c, root)
	fromLCA, ok2 := tree.ComputeTransform(root, b)
	if !ok1 || !ok2 {
		t.Fatal("composition through root not ok")
	}
	if via := fromLCA.Multiply(toLCA); !direct.ApproxEqual(via, tol) {
		t.Errorf("direct = %+v, via LCA = %+v", direct, via)
	}

	// Same result through screen space.
	tree.UpdateAll()
	screen := tree.Node(b).Data.FromScreen.Multiply(tree.Node(c).Data.ToScreen)
	if !direct.ApproxEqual(screen, tol) {
		t.Errorf("direct = %+v, via screen = %+v", direct, screen)
	}
}

func TestComputeTransformSingular(t *testing.T) {
	tree := NewTransformTree()
	root := tree.Insert(transformNode(compositor.Identity()), NoNode)
	flat := tree.Insert(transformNode(compositor.Scale(0, 1)), root)
	child := tree.Insert(transformNode(compositor.Translate(1, 1)), flat)

	if tree.Node(flat).Data.IsInvertible {
		t.Fatal("zero-scale node reported invertible")
	}
	if _, ok := tree.ComputeTransform(child, root); !ok {
		t.Error("mapping up through a singular node needs no inverse and should succeed")
	}
	if _, ok := tree.ComputeTransform(root, child); ok {
		t.Error("mapping down through a singular node should not be trusted")
	}
	if _, ok := tree.ComputeTransform(root, 42); ok {
		t.Error("unknown node should not be ok")
	}

	tree.UpdateAll()
	if tree.Node(child).Data.AncestorsAreInvertible {
		t.Error("child of a singular node should have non-invertible ancestors")
	}
}

func TestAre2DAxisAligned(t *testing.T) {
	tree := NewTransformTree()
	root := tree.Insert(transformNode(compositor.Identity()), NoNode)
	scaled := tree.Insert(transformNode(compositor.Translate(3, 4).Multiply(compositor.Scale(2, 3))), root)
	rotated := tree.Insert(transformNode(compositor.Rotate(math.Pi/4)), root)
	unrotated := tree.Insert(transformNode(compositor.Rotate(-math.Pi/4)), rotated)
	quarter := tree.Insert(transformNode(compositor.Rotate(math.Pi/2)), root)

	tests := []struct {
		name     string
		src, dst int
		want     bool
	}{
		{"scale and translate", scaled, root, true},
		{"45deg", rotated, root, false},
		{"45deg between siblings", rotated, scaled, false},
		{"rotation undone by child", unrotated, root, true},
		{"90deg", quarter, scaled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Are2DAxisAligned(tt.src, tt.dst); got != tt.want {
				t.Errorf("Are2DAxisAligned() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateScreenSpaceTransform(t *testing.T) {
	tree, _, a, _, c := buildTransforms()
	tree.Node(a).Data.IsAnimated = true
	tree.UpdateAll()

	d := tree.Node(c).Data
	if got := d.ToScreen.TransformPoint(compositor.Pt(1, 1)); got.Distance(compositor.Pt(22, 12)) > tol {
		t.Errorf("ToScreen(1,1) = %v, want (22, 12)", got)
	}
	if got := d.FromScreen.Multiply(d.ToScreen); !got.ApproxEqual(compositor.Identity(), tol) {
		t.Errorf("FromScreen * ToScreen = %+v", got)
	}
	if !d.ToScreenIsAnimated {
		t.Error("child of an animated node should have an animated screen transform")
	}
	if tree.Node(0).Data.ToScreenIsAnimated {
		t.Error("root is not animated")
	}
}

func TestSetToParentInvalidatesMemo(t *testing.T) {
	tree, root, a, _, _ := buildTransforms()

	before, _ := tree.ComputeTransform(a, root)
	tree.ComputeTransform(a, root)
	if s := tree.MemoStats(); s.Hits != 1 {
		t.Errorf("memo hits = %d, want 1", s.Hits)
	}

	if !tree.SetToParent(a, compositor.Translate(20, 0)) {
		t.Fatal("SetToParent failed")
	}
	after, _ := tree.ComputeTransform(a, root)
	if after.ApproxEqual(before, tol) {
		t.Error("ComputeTransform returned a stale memoized result")
	}
	if got := after.TransformPoint(compositor.Pt(0, 0)); got.Distance(compositor.Pt(20, 0)) > tol {
		t.Errorf("a origin in root = %v, want (20, 0)", got)
	}
	if tree.SetToParent(99, compositor.Identity()) {
		t.Error("SetToParent on a missing node should fail")
	}
}

func TestTransformTreeClone(t *testing.T) {
	tree, root, a, _, _ := buildTransforms()
	c := tree.Clone()
	c.SetToParent(a, compositor.Identity())

	orig, _ := tree.ComputeTransform(a, root)
	if got := orig.TransformPoint(compositor.Pt(0, 0)); got.Distance(compositor.Pt(10, 0)) > tol {
		t.Errorf("original changed through clone: %v", got)
	}
}
