package device

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// NoPicker is a Picker with no acquisition surface, for processes where
// images arrive by push (HTTP upload). Every dialog reports a user cancel.
type NoPicker struct{}

func (NoPicker) Pick(ctx context.Context, opts PickOptions) ([]PickedImage, error) {
	return nil, ErrCancelled
}

func (NoPicker) Capture(ctx context.Context, opts CaptureOptions) (PickedImage, error) {
	return PickedImage{}, ErrCancelled
}

func (NoPicker) Crop(ctx context.Context, opts CropOptions) (PickedImage, error) {
	return PickedImage{}, ErrCancelled
}

func (NoPicker) Cleanup(path string) error {
	return nil
}

// DirPicker is a filesystem-backed Picker used by the CLI: the "gallery" is a
// fixed list of local photo paths. Capture and Crop reuse the same files,
// since there is no camera or crop dialog to open.
type DirPicker struct {
	Paths []string

	tx Transformer
}

func NewDirPicker(paths []string, tx Transformer) *DirPicker {
	return &DirPicker{Paths: paths, tx: tx}
}

func (p *DirPicker) Pick(ctx context.Context, opts PickOptions) ([]PickedImage, error) {
	if len(p.Paths) == 0 {
		return nil, ErrCancelled
	}

	limit := len(p.Paths)
	if opts.MaxFiles > 0 && opts.MaxFiles < limit {
		limit = opts.MaxFiles
	}

	picked := make([]PickedImage, 0, limit)
	for _, path := range p.Paths[:limit] {
		img, err := p.describe(ctx, path)
		if err != nil {
			return nil, err
		}
		picked = append(picked, img)
	}
	return picked, nil
}

func (p *DirPicker) Capture(ctx context.Context, opts CaptureOptions) (PickedImage, error) {
	if len(p.Paths) == 0 {
		return PickedImage{}, ErrCancelled
	}
	return p.describe(ctx, p.Paths[0])
}

func (p *DirPicker) Crop(ctx context.Context, opts CropOptions) (PickedImage, error) {
	return p.describe(ctx, URIToPath(opts.Path))
}

func (p *DirPicker) Cleanup(path string) error {
	return nil
}

func (p *DirPicker) describe(ctx context.Context, path string) (PickedImage, error) {
	if _, err := os.Stat(path); err != nil {
		return PickedImage{}, fmt.Errorf("failed to stat photo: %w", err)
	}

	img := PickedImage{
		Path: path,
		MIME: mime.TypeByExtension(filepath.Ext(path)),
	}

	// Dimension hints are optional. A failed measurement just leaves them to
	// the payload builder's fallback.
	if w, h, err := p.tx.Measure(ctx, NormalizeURI(path)); err == nil {
		img.Width, img.Height = w, h
	}
	return img, nil
}
