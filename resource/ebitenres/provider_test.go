package ebitenres

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestProviderCreateDelete(t *testing.T) {
	p := New()
	id, err := p.CreateResource(0, image.Pt(16, 8), gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	img := p.Image(id)
	if img == nil {
		t.Fatal("Image() = nil")
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("image bounds = %v, want 16x8", b)
	}

	p.DeleteResource(id)
	p.DeleteResource(id)
	if p.Image(id) != nil || p.Len() != 0 {
		t.Error("deleted image still tracked")
	}
}

func TestProviderRejectsFormats(t *testing.T) {
	p := New()
	_, err := p.CreateResource(0, image.Pt(4, 4), gputypes.TextureFormatR8Unorm)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := p.CreateResource(0, image.Pt(0, 4), gputypes.TextureFormatRGBA8Unorm); err == nil {
		t.Error("empty size should fail")
	}
}
