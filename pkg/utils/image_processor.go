package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DefaultMaxPixels bounds the decoded size of a source image (width * height).
const DefaultMaxPixels = 40_000_000

// ErrImageTooLarge is returned for sources whose declared dimensions exceed
// the pixel limit. They are rejected before any pixel data is decoded.
var ErrImageTooLarge = errors.New("image dimensions too large")

// ThumbnailOptions controls ProcessThumbnail.
type ThumbnailOptions struct {
	Width     int     // target width; 0 keeps the source width
	MaxWidth  int     // hard cap on the output width
	Quality   float32 // 1-100
	MaxPixels int     // 0 means DefaultMaxPixels
}

// ProcessThumbnail decodes an image, scales it down to the requested width
// (never up) and encodes it as WebP, falling back to JPEG.
// It returns the encoded bytes and their content type.
func ProcessThumbnail(r io.Reader, opts ThumbnailOptions) ([]byte, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrImageTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	width := img.Bounds().Dx()
	target := width
	if opts.Width > 0 && opts.Width < target {
		target = opts.Width
	}
	if opts.MaxWidth > 0 && opts.MaxWidth < target {
		target = opts.MaxWidth
	}
	if target < width {
		img = imaging.Resize(img, target, 0, imaging.Lanczos)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	var buf bytes.Buffer
	err = webp.Encode(&buf, img, &webp.Options{
		Lossless: false,
		Quality:  quality,
	})
	if err != nil {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(quality)}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	return buf.Bytes(), "image/webp", nil
}

// IsImage verifies simple content type
func IsImage(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}
