package priority

import (
	"image"
	"testing"
)

func TestOrderingConsistent(t *testing.T) {
	values := []Priority{Highest(), -1, 0, 1, 512, FromDistanceValue(10), Lingering(0), Lowest()}
	for _, a := range values {
		for _, b := range values {
			if IsHigher(a, b) != IsLower(b, a) {
				t.Errorf("IsHigher(%d, %d) != IsLower(%d, %d)", a, b, b, a)
			}
			if a == b && (IsHigher(a, b) || IsLower(a, b)) {
				t.Errorf("equal priorities %d must be neither higher nor lower", a)
			}
		}
	}
}

func TestOrderingTransitive(t *testing.T) {
	values := []Priority{Lowest(), 7, Highest(), -3, 1000, Lingering(5)}
	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				if IsHigher(a, b) && IsHigher(b, c) && !IsHigher(a, c) {
					t.Errorf("ordering not transitive for %d > %d > %d", a, b, c)
				}
			}
		}
	}
}

func TestSentinels(t *testing.T) {
	if !IsLower(Lowest(), FromDistanceValue(1<<30)) {
		t.Error("Lowest must be lower than any distance priority")
	}
	if !IsLower(Lowest(), Lingering(Lowest()-1)) {
		t.Error("Lowest must be lower than lingering priorities")
	}
	if !IsHigher(Highest(), UI(true)) {
		t.Error("Highest must be higher than UI priority")
	}
}

func TestFromDistance(t *testing.T) {
	visible := image.Rect(0, 0, 100, 100)
	tests := []struct {
		name    string
		content image.Rectangle
		want    Priority
	}{
		{"inside", image.Rect(10, 10, 20, 20), Visible(true)},
		{"overlapping", image.Rect(90, 90, 200, 200), Visible(true)},
		{"touching", image.Rect(100, 0, 150, 50), Visible(true)},
		{"right", image.Rect(110, 0, 150, 50), FromDistanceValue(10)},
		{"diagonal", image.Rect(110, 120, 150, 150), FromDistanceValue(30)},
		{"far away", image.Rect(5000000, 0, 5000010, 10), notVisibleLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromDistance(visible, tt.content, true); got != tt.want {
				t.Errorf("FromDistance() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCloserIsHigher(t *testing.T) {
	visible := image.Rect(0, 0, 100, 100)
	near := FromDistance(visible, image.Rect(0, 110, 100, 200), false)
	far := FromDistance(visible, image.Rect(0, 500, 100, 600), false)
	if !IsHigher(near, far) {
		t.Errorf("near (%d) should be higher than far (%d)", near, far)
	}
	if !IsHigher(Visible(false), near) {
		t.Error("visible content should be higher than nearby content")
	}
	if !IsHigher(SmallAnimatedLayerMin(), FromDistanceValue(1000)) {
		t.Error("animated minimum should beat content 1000px away")
	}
}

func TestLingering(t *testing.T) {
	p := Lingering(Visible(true))
	if p != lingeringBase {
		t.Errorf("Lingering(visible) = %d, want %d", p, lingeringBase)
	}
	if next := Lingering(p); !IsLower(next, p) {
		t.Errorf("Lingering should decay: %d -> %d", p, next)
	}
	if got := Lingering(lingeringLimit); got != lingeringLimit {
		t.Errorf("Lingering(limit) = %d, want clamp to %d", got, lingeringLimit)
	}
	if !IsLower(Lingering(0), FromDistanceValue(1)) {
		t.Error("lingering content should rank below not-visible content")
	}
}

func TestManhattanDistance(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	if d := ManhattanDistance(a, image.Rect(20, 30, 25, 35)); d != 30 {
		t.Errorf("ManhattanDistance = %d, want 30", d)
	}
	if d := ManhattanDistance(image.Rect(20, 30, 25, 35), a); d != 30 {
		t.Errorf("ManhattanDistance should be symmetric, got %d", d)
	}
}

func TestCutoffPolicies(t *testing.T) {
	if IsHigher(Visible(true), AllowNothingCutoff()) {
		t.Error("nothing should be above the allow-nothing cutoff")
	}
	if !IsHigher(Visible(false), AllowVisibleOnlyCutoff()) {
		t.Error("visible content must pass the visible-only cutoff")
	}
	if IsHigher(FromDistanceValue(1), AllowVisibleOnlyCutoff()) {
		t.Error("offscreen content must not pass the visible-only cutoff")
	}
	if !IsHigher(FromDistanceValue(100), AllowVisibleAndNearbyCutoff()) {
		t.Error("nearby content must pass the visible-and-nearby cutoff")
	}
	if IsHigher(Lowest(), AllowEverythingCutoff()) {
		t.Error("unprioritized textures never pass a cutoff")
	}
}
