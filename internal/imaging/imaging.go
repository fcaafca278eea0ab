// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded images before they are stored. It
// sniffs the content type, decodes only the header to learn the
// dimensions and rejects anything that is not a supported raster image
// or that would expand into an unreasonable number of pixels.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxPixels caps width*height to prevent decompression bombs.
// 8000x8000 = 64 million pixels, ~256 MB decoded in RGBA.
const MaxPixels = 64_000_000

var (
	// ErrNotImage is returned when the sniffed content type is not image/*.
	ErrNotImage = errors.New("file is not an image")

	// ErrUnsupported is returned for image types no decoder is registered for.
	ErrUnsupported = errors.New("unsupported image format")

	// ErrTooManyPixels is returned when the dimensions exceed MaxPixels.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// Info describes a probed image.
type Info struct {
	ContentType string // sniffed MIME type, e.g. "image/webp"
	Format      string // decoder name: jpeg, png, gif, webp
	Width       int
	Height      int
}

// Ext returns the canonical file extension for the format, without the dot.
func (i Info) Ext() string {
	if i.Format == "jpeg" {
		return "jpg"
	}
	return i.Format
}

// Probe validates data as an uploadable image and returns its metadata.
func Probe(data []byte) (Info, error) {
	sniffLen := min(len(data), 512)
	ct := http.DetectContentType(data[:sniffLen])
	if !strings.HasPrefix(ct, "image/") {
		return Info{}, fmt.Errorf("%w: detected %s", ErrNotImage, ct)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("decode image header: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Info{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	return Info{
		ContentType: ct,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
