// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"github.com/gogpu/compositor"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// translation animates a layer's offset on both axes at once.
type translation struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	done   bool
}

func newTranslation(from, to compositor.Point, duration float32, fn ease.TweenFunc) *translation {
	if fn == nil {
		fn = ease.Linear
	}
	return &translation{
		tweenX: gween.New(float32(from.X), float32(to.X), duration, fn),
		tweenY: gween.New(float32(from.Y), float32(to.Y), duration, fn),
	}
}

// update advances the tweens by dt seconds and returns the current offset.
func (a *translation) update(dt float32) compositor.Point {
	x, doneX := a.tweenX.Update(dt)
	y, doneY := a.tweenY.Update(dt)
	a.done = doneX && doneY
	return compositor.Pt(float64(x), float64(y))
}
