// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares uploaded login backgrounds for serving. A
// background is decoded, downscaled to MaxBackgroundWidth when wider and
// re-encoded as a JPEG at BackgroundQuality. Images already narrow enough
// are never upscaled.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxBackgroundWidth is the widest background stored, in pixels.
	MaxBackgroundWidth = 1920

	// BackgroundQuality is the JPEG quality of stored backgrounds.
	BackgroundQuality = 75

	// BackgroundProgressive requests interlaced output where the encoder
	// supports it.
	BackgroundProgressive = true

	// BackgroundMime is the MIME type of every processed background.
	BackgroundMime = "image/jpeg"

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000
)

// ErrUnsupportedImage is returned when the input cannot be decoded.
var ErrUnsupportedImage = errors.New("imaging: unsupported image type")

// Processor turns an uploaded background into the bytes to store.
type Processor interface {
	ProcessBackground(data []byte) ([]byte, error)
}

// GoProcessor is a pure-Go Processor built on image/jpeg and x/image/draw.
// The standard JPEG encoder only writes baseline images, so its output is
// not interlaced; the vips processor is used when progressive output matters.
type GoProcessor struct{}

// NewGoProcessor returns the pure-Go processor.
func NewGoProcessor() GoProcessor { return GoProcessor{} }

// ProcessBackground implements Processor.
func (GoProcessor) ProcessBackground(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if w, h, ok := TargetSize(img.Bounds().Dx(), img.Bounds().Dy()); ok {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: BackgroundQuality}); err != nil {
		return nil, fmt.Errorf("encode background: %w", err)
	}
	return buf.Bytes(), nil
}

// TargetSize returns the downscaled dimensions for a width x height image
// and whether a resize is needed at all. Aspect ratio is preserved.
func TargetSize(width, height int) (int, int, bool) {
	if width <= MaxBackgroundWidth {
		return width, height, false
	}
	ratio := float64(MaxBackgroundWidth) / float64(width)
	h := int(float64(height)*ratio + 0.5)
	if h < 1 {
		h = 1
	}
	return MaxBackgroundWidth, h, true
}
