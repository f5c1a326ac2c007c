// Package priority defines the ordering of texture request priorities.
//
// A Priority is an opaque integer. Numerically smaller values are more
// important, but callers must compare priorities only through [IsHigher] and
// [IsLower] so the policy can change without touching the texture manager.
package priority

import (
	"image"
	"math"
)

// Priority is a texture request priority.
type Priority int

const (
	highest Priority = math.MinInt32
	lowest  Priority = math.MaxInt32

	uiDrawsToRootSurface            Priority = -1
	visibleDrawsToRootSurface       Priority = -1
	renderSurfaces                  Priority = 0
	uiDoesNotDrawToRootSurface      Priority = 0
	visibleDoesNotDrawToRootSurface Priority = 0

	notVisibleBase  Priority = 1000000
	notVisibleLimit Priority = 1900000

	// Small animated layers are treated as though they are 512 pixels from
	// being visible.
	smallAnimatedLayerMin Priority = notVisibleBase + 512

	lingeringBase  Priority = 2000000
	lingeringLimit Priority = 2900000

	allowVisibleOnlyCutoff      Priority = notVisibleBase
	allowVisibleAndNearbyCutoff Priority = notVisibleBase + 4096
)

// Lowest is the sentinel meaning "evict before every real priority".
// Textures that were not given a priority this frame carry it.
func Lowest() Priority { return lowest }

// Highest is the most important priority.
func Highest() Priority { return highest }

// IsHigher reports whether a is more important than b.
func IsHigher(a, b Priority) bool { return a < b }

// IsLower reports whether a is less important than b.
func IsLower(a, b Priority) bool { return a > b }

// Max returns the more important of a and b.
func Max(a, b Priority) Priority {
	if IsHigher(a, b) {
		return a
	}
	return b
}

// UI returns the priority of browser UI content.
func UI(drawsToRootSurface bool) Priority {
	if drawsToRootSurface {
		return uiDrawsToRootSurface
	}
	return uiDoesNotDrawToRootSurface
}

// Visible returns the priority of content that is on screen.
func Visible(drawsToRootSurface bool) Priority {
	if drawsToRootSurface {
		return visibleDrawsToRootSurface
	}
	return visibleDoesNotDrawToRootSurface
}

// RenderSurface returns the priority of intermediate render surfaces.
func RenderSurface() Priority { return renderSurfaces }

// Lingering returns the priority of content that was needed recently but is
// no longer visible. Each call moves one step towards the end of the
// lingering band, which sits below all not-visible content.
func Lingering(previous Priority) Priority {
	return min(lingeringLimit, max(lingeringBase, previous+1))
}

// SmallAnimatedLayerMin is the least important priority an animated layer
// gets, so that it is not evicted while it moves on and off screen.
func SmallAnimatedLayerMin() Priority { return smallAnimatedLayerMin }

// FromDistance maps the distance between the visible rectangle and a content
// rectangle onto a priority. Content intersecting the visible area is
// [Visible]; everything else falls in the not-visible band, closer content
// first.
func FromDistance(visible, content image.Rectangle, drawsToRootSurface bool) Priority {
	d := ManhattanDistance(visible, content)
	if d == 0 {
		return Visible(drawsToRootSurface)
	}
	return FromDistanceValue(d)
}

// FromDistanceValue maps a non-zero pixel distance onto the not-visible band.
func FromDistanceValue(distance int) Priority {
	if distance > int(notVisibleLimit-notVisibleBase) {
		return notVisibleLimit
	}
	return notVisibleBase + Priority(distance)
}

// ManhattanDistance returns the sum of the horizontal and vertical gaps
// between two rectangles, or 0 if they touch or overlap.
func ManhattanDistance(a, b image.Rectangle) int {
	dx := max(0, b.Min.X-a.Max.X, a.Min.X-b.Max.X)
	dy := max(0, b.Min.Y-a.Max.Y, a.Min.Y-b.Max.Y)
	return dx + dy
}

// AllowNothingCutoff is a memory policy cutoff that admits no textures.
func AllowNothingCutoff() Priority { return highest }

// AllowVisibleOnlyCutoff is a memory policy cutoff admitting only visible content.
func AllowVisibleOnlyCutoff() Priority { return allowVisibleOnlyCutoff }

// AllowVisibleAndNearbyCutoff admits visible content plus content within a
// short distance of the viewport.
func AllowVisibleAndNearbyCutoff() Priority { return allowVisibleAndNearbyCutoff }

// AllowEverythingCutoff admits every texture that was given a priority.
func AllowEverythingCutoff() Priority { return lowest }
