package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// jpegQuality matches the 0.9 compression the payload contract fixes.
const jpegQuality = 90

// LocalTransformer measures and re-encodes images on the local filesystem.
type LocalTransformer struct{}

func (LocalTransformer) Measure(ctx context.Context, uri string) (int, int, error) {
	f, err := os.Open(URIToPath(uri))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func (LocalTransformer) EncodeBase64JPEG(ctx context.Context, uri string, resize *ResizeSpec) (string, error) {
	f, err := os.Open(URIToPath(uri))
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	out := src
	if resize != nil && (resize.Width != src.Bounds().Dx() || resize.Height != src.Bounds().Dy()) {
		dst := image.NewRGBA(image.Rect(0, 0, resize.Width, resize.Height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}
	if buf.Len() == 0 {
		return "", fmt.Errorf("jpeg encoder produced no output")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
