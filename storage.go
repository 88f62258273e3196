package tryon

import (
	"context"
	"time"
)

// Storage is an interface for persisting synthesized looks. It is a
// minimal interface designed for easy integration - implementations can
// wrap existing storage clients (GCS, S3, local disk) with this interface.
type Storage interface {
	// SaveFile saves image data to storage and returns the public URL.
	// The path should include the full object path (e.g., "looks/abc/3.jpg").
	// The contentType is typically the image's MIME type.
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// SaveLook persists a synthesized look image under basePath with an
// extension derived from its MIME type.
func SaveLook(ctx context.Context, storage Storage, img *ImageRef, basePath string) (string, error) {
	if storage == nil {
		return "", ErrStorageNotConfigured
	}
	if img == nil || len(img.Data) == 0 {
		return "", ErrEmptyImageData
	}

	path := basePath + "/" + time.Now().UTC().Format("20060102T150405.000") +
		"." + extensionFromMIME(img.MIMEType)

	return storage.SaveFile(ctx, img.Data, path, img.MIMEType)
}

// extensionFromMIME returns a file extension for common image MIME types.
func extensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
