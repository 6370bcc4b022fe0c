// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package vips implements imaging.Processor with libvips, which can write
// progressive JPEGs. It lives in its own package so the cgo dependency is
// only linked when this backend is selected.
package vips

import (
	"fmt"
	"log/slog"

	"github.com/davidbyttow/govips/v2/vips"

	"cloudtheme/internal/imaging"
)

// Startup initialises the libvips library. Call once at application start.
// concurrency controls the number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	cfg := &vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024, // 50 MB
	}
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(cfg)
	slog.Info("libvips started", "version", vips.Version)
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	vips.Shutdown()
}

// Processor is the libvips background processor.
type Processor struct{}

// New returns a libvips processor. Startup must have been called.
func New() Processor { return Processor{} }

// ProcessBackground implements imaging.Processor.
func (Processor) ProcessBackground(data []byte) ([]byte, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imaging.ErrUnsupportedImage, err)
	}
	defer img.Close()

	// Auto-rotate based on EXIF orientation before measuring.
	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips autorotate: %w", err)
	}

	if w, _, ok := imaging.TargetSize(img.Width(), img.Height()); ok {
		scale := float64(w) / float64(img.Width())
		if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("vips resize: %w", err)
		}
	}

	params := vips.NewJpegExportParams()
	params.Quality = imaging.BackgroundQuality
	params.Interlace = imaging.BackgroundProgressive
	params.StripMetadata = true

	buf, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	return buf, nil
}
