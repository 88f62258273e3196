// Package imageprep normalizes uploaded images before they enter a
// consultation session: given raw bytes, it returns a bounded-resolution
// JPEG payload with a known MIME type.
//
// JPEG, PNG, GIF, and WebP inputs are accepted.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/mhpenta/tryon"
)

const (
	defaultMaxWidth     = 1280
	defaultMaxSizeBytes = 1 * 1024 * 1024
	defaultQuality      = 80

	// minDownscaleWidth is the floor below which the quality loop gives up.
	minDownscaleWidth = 320
)

// Normalizer decodes, downscales, and re-encodes uploaded images.
type Normalizer struct {
	maxWidth int
	maxBytes int
	quality  int
}

// New creates a Normalizer with default bounds (1280px wide, 1MB, q80).
func New() *Normalizer {
	return &Normalizer{
		maxWidth: defaultMaxWidth,
		maxBytes: defaultMaxSizeBytes,
		quality:  defaultQuality,
	}
}

// SetMaxWidth overrides the resolution bound.
func (n *Normalizer) SetMaxWidth(width int) *Normalizer {
	n.maxWidth = width
	return n
}

// SetMaxBytes overrides the encoded-size bound.
func (n *Normalizer) SetMaxBytes(size int) *Normalizer {
	n.maxBytes = size
	return n
}

// Normalize decodes raw upload bytes and returns a normalized image
// payload within the configured bounds.
func (n *Normalizer) Normalize(data []byte) (tryon.ImageRef, error) {
	if len(data) == 0 {
		return tryon.ImageRef{}, tryon.ErrEmptyImageData
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return tryon.ImageRef{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()
	if origWidth == 0 || origHeight == 0 {
		return tryon.ImageRef{}, fmt.Errorf("invalid %s image size: %dx%d", format, origWidth, origHeight)
	}

	width := min(origWidth, n.maxWidth)
	height := origHeight * width / origWidth

	var encoded []byte
	for {
		resized := resizeNearest(img, width, height)
		encoded, err = encodeJPEG(resized, n.quality)
		if err != nil {
			return tryon.ImageRef{}, err
		}

		if len(encoded) <= n.maxBytes {
			break
		}

		if width <= minDownscaleWidth {
			return tryon.ImageRef{}, fmt.Errorf("image exceeds max size %d bytes even after downscale", n.maxBytes)
		}

		width = max(1, int(float64(width)*0.9))
		height = max(1, origHeight*width/origWidth)
	}

	return tryon.ImageRef{
		Data:     encoded,
		MIMEType: "image/jpeg",
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeNearest(src image.Image, width int, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()
	if srcWidth == 0 || srcHeight == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		srcY := srcBounds.Min.Y + y*srcHeight/height
		for x := range width {
			srcX := srcBounds.Min.X + x*srcWidth/width
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}

	return dst
}
