package imageprep

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_BoundsResolution(t *testing.T) {
	norm := New()

	ref, err := norm.Normalize(encodePNG(t, 2000, 1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ref.MIMEType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ref.MIMEType)
	}

	decoded, _, err := image.Decode(bytes.NewReader(ref.Data))
	if err != nil {
		t.Fatalf("normalized payload does not decode: %v", err)
	}

	if w := decoded.Bounds().Dx(); w > defaultMaxWidth {
		t.Errorf("width %d exceeds bound %d", w, defaultMaxWidth)
	}
	// Aspect ratio preserved: 2000x1000 -> 1280x640.
	if h := decoded.Bounds().Dy(); h != 640 {
		t.Errorf("expected height 640, got %d", h)
	}
}

func TestNormalize_SmallImageKeepsSize(t *testing.T) {
	norm := New()

	ref, err := norm.Normalize(encodePNG(t, 400, 300))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(ref.Data))
	if err != nil {
		t.Fatalf("normalized payload does not decode: %v", err)
	}

	if decoded.Bounds().Dx() != 400 || decoded.Bounds().Dy() != 300 {
		t.Errorf("small image should not be upscaled or downscaled, got %v", decoded.Bounds())
	}
}

func TestNormalize_Errors(t *testing.T) {
	norm := New()

	if _, err := norm.Normalize(nil); err == nil {
		t.Error("expected error for empty input")
	}

	if _, err := norm.Normalize([]byte("not an image")); err == nil {
		t.Error("expected error for undecodable input")
	}
}
