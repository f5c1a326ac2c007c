// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/gogpu/compositor/priority"
	"github.com/gogpu/compositor/texture"
	"github.com/gogpu/gputypes"
)

func TestMemoryProviderBookkeeping(t *testing.T) {
	p := NewMemoryProvider(0)
	a, err := p.CreateResource(0, image.Pt(10, 10), gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.CreateResource(1, image.Pt(4, 4), gputypes.TextureFormatR8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if a == b || a == 0 || b == 0 {
		t.Fatalf("resource ids %d, %d not unique and non-zero", a, b)
	}

	p.DeleteResource(a)
	p.DeleteResource(a)

	s := p.Stats()
	want := MemoryStats{Live: 1, LiveBytes: 16, PeakBytes: 416, Created: 2, Deleted: 1}
	if s != want {
		t.Errorf("Stats() = %s, want %s", s, want)
	}
	if p.IsLive(a) || !p.IsLive(b) {
		t.Error("IsLive mismatch")
	}
}

func TestMemoryProviderCapacity(t *testing.T) {
	p := NewMemoryProvider(500)
	if _, err := p.CreateResource(0, image.Pt(10, 10), gputypes.TextureFormatRGBA8Unorm); err != nil {
		t.Fatal(err)
	}
	_, err := p.CreateResource(0, image.Pt(10, 10), gputypes.TextureFormatRGBA8Unorm)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("CreateResource over capacity error = %v, want ErrOutOfMemory", err)
	}
	if p.Stats().Failed != 1 {
		t.Errorf("Failed = %d, want 1", p.Stats().Failed)
	}
}

func TestMemoryProviderFailNext(t *testing.T) {
	p := NewMemoryProvider(0)
	boom := errors.New("device lost")
	p.FailNext(boom)
	if _, err := p.CreateResource(0, image.Pt(1, 1), gputypes.TextureFormatR8Unorm); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if _, err := p.CreateResource(0, image.Pt(1, 1), gputypes.TextureFormatR8Unorm); err != nil {
		t.Errorf("FailNext should only affect one call, got %v", err)
	}
}

func TestMemoryProviderConcurrent(t *testing.T) {
	p := NewMemoryProvider(0)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id, err := p.CreateResource(0, image.Pt(2, 2), gputypes.TextureFormatRGBA8Unorm)
				if err != nil {
					t.Error(err)
					return
				}
				p.DeleteResource(id)
			}
		}()
	}
	wg.Wait()
	if s := p.Stats(); s.Live != 0 || s.Created != 800 || s.Deleted != 800 {
		t.Errorf("Stats() = %s", s)
	}
}

func TestManagerWithMemoryProvider(t *testing.T) {
	// The device has less memory than the budget claims.
	p := NewMemoryProvider(400)
	m := texture.NewManager(texture.Config{MaxMemoryLimitBytes: 1000, Debug: true})

	a, _ := m.CreateTexture(image.Pt(10, 10), gputypes.TextureFormatRGBA8Unorm)
	b, _ := m.CreateTexture(image.Pt(10, 10), gputypes.TextureFormatRGBA8Unorm)

	m.BeginFrame()
	if err := a.SetRequestPriority(priority.Visible(true)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetRequestPriority(priority.FromDistanceValue(10)); err != nil {
		t.Fatal(err)
	}
	m.EndFrame()
	m.ReduceMemory(p)

	if err := a.AcquireBackingTexture(p); err != nil {
		t.Fatal(err)
	}
	err := b.AcquireBackingTexture(p)
	if !errors.Is(err, texture.ErrBackingAllocation) || !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("AcquireBackingTexture() error = %v, want ErrBackingAllocation wrapping ErrOutOfMemory", err)
	}
	if b.HaveBackingTexture() {
		t.Error("failed texture has a backing")
	}
	if got, want := m.MemoryUseBytes(), p.Stats().LiveBytes; got != want {
		t.Errorf("manager use %d != provider live bytes %d", got, want)
	}

	m.ClearAllMemory(p)
	if p.Stats().Live != 0 {
		t.Errorf("provider still has %d live resources", p.Stats().Live)
	}
}
