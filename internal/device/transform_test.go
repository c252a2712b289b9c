package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestJPEG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, "test.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test jpeg: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return path
}

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return path
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, 320, 240)

	var tx LocalTransformer
	width, height, err := tx.Measure(context.Background(), NormalizeURI(path))
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if width != 320 || height != 240 {
		t.Errorf("Measure = %dx%d, want 320x240", width, height)
	}
}

func TestMeasureMissingFile(t *testing.T) {
	var tx LocalTransformer
	if _, _, err := tx.Measure(context.Background(), "file:///does/not/exist.jpg"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEncodeBase64JPEGResize(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, 400, 300)

	var tx LocalTransformer
	out, err := tx.EncodeBase64JPEG(context.Background(), NormalizeURI(path), &ResizeSpec{Width: 128, Height: 96})
	if err != nil {
		t.Fatalf("EncodeBase64JPEG: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(out)
	if err != nil {
		t.Fatalf("output is not base64: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output did not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
	if cfg.Width != 128 || cfg.Height != 96 {
		t.Errorf("output = %dx%d, want 128x96", cfg.Width, cfg.Height)
	}
}

func TestEncodeBase64JPEGNoResize(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 200, 100)

	var tx LocalTransformer
	out, err := tx.EncodeBase64JPEG(context.Background(), NormalizeURI(path), nil)
	if err != nil {
		t.Fatalf("EncodeBase64JPEG: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(out)
	if err != nil {
		t.Fatalf("output is not base64: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output did not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("png input should re-encode as jpeg, got %q", format)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("output = %dx%d, want source size 200x100", cfg.Width, cfg.Height)
	}
}
