// Package media downloads and analyzes image references discovered by
// the content pipeline: dimensions, format, color profile, perceptual
// hash, EXIF metadata, dominant colors, and a deterministic content-hint
// classification.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// Decode sniffs and decodes image bytes, supporting jpeg/png/gif via the
// standard library plus webp/bmp via golang.org/x/image. No general
// image-processing library in the retrieval pack offers a wider format
// set, so format-specific decoders are registered directly.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, format, nil
	}

	if webpImg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return webpImg, "webp", nil
	}
	if bmpImg, berr := bmp.Decode(bytes.NewReader(data)); berr == nil {
		return bmpImg, "bmp", nil
	}

	return nil, "", fmt.Errorf("unrecognized image format: %w", err)
}
