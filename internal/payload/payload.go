// Package payload turns the tracked collection into the encoded images the
// identification request carries.
package payload

import (
	"context"
	"fmt"
	"math"

	"github.com/7-mb/speciesid/internal/collection"
	"github.com/7-mb/speciesid/internal/device"
)

// MinSidePx bounds the shorter side of every payload image. Images already
// within the bound are never upscaled.
const MinSidePx = 384

// Builder encodes tracked images as downsized base64 JPEGs.
type Builder struct {
	Transformer device.Transformer
	MinSide     int
}

func NewBuilder(tx device.Transformer) *Builder {
	return &Builder{Transformer: tx, MinSide: MinSidePx}
}

// Build encodes every image in collection order. Any single failure aborts
// the whole build: a partial payload would silently misrepresent the
// collection to the service.
func (b *Builder) Build(ctx context.Context, images []collection.TrackedImage) ([]string, error) {
	encoded := make([]string, 0, len(images))
	for _, img := range images {
		out, err := b.encodeOne(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode image %s: %w", img.ID, err)
		}
		encoded = append(encoded, out)
	}
	return encoded, nil
}

func (b *Builder) encodeOne(ctx context.Context, img collection.TrackedImage) (string, error) {
	uri := device.NormalizeURI(img.BestRef())

	width, height := img.Source.Width, img.Source.Height
	if width == 0 || height == 0 {
		var err error
		width, height, err = b.Transformer.Measure(ctx, uri)
		if err != nil {
			return "", fmt.Errorf("failed to measure image: %w", err)
		}
	}

	out, err := b.Transformer.EncodeBase64JPEG(ctx, uri, b.resizeFor(width, height))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("encoder produced no output")
	}
	return out, nil
}

// resizeFor scales so min(width, height) lands on the bound. Returns nil when
// the image is already within it.
func (b *Builder) resizeFor(width, height int) *device.ResizeSpec {
	minSide := width
	if height < minSide {
		minSide = height
	}
	if minSide <= b.MinSide {
		return nil
	}

	scale := float64(b.MinSide) / float64(minSide)
	return &device.ResizeSpec{
		Width:  atLeastOne(math.Round(float64(width) * scale)),
		Height: atLeastOne(math.Round(float64(height) * scale)),
	}
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
