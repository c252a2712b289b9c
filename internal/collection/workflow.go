package collection

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/notify"
)

// Workflow is the per-image persistence pipeline: embed the metadata record,
// copy into app storage, publish to the gallery album. It runs exactly once
// per (id, source) pair and never blocks the caller.
type Workflow struct {
	Meta    device.MetadataWriter
	Files   device.FileStore
	Gallery device.Gallery

	ImagesDir string
	AlbumName string

	Notifier notify.Notifier
	Tr       i18n.Func

	// Now is the workflow clock, overridable in tests.
	Now func() time.Time
}

func (w *Workflow) clock() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Persist runs the workflow and returns the app-storage reference. A denied
// gallery permission surfaces a notice but does not fail the run: the image
// is still locally saved. Any other step failure fails the whole run.
func (w *Workflow) Persist(ctx context.Context, id string, source device.PickedImage) (string, error) {
	sourceURI := device.NormalizeURI(source.Path)

	tagged, err := w.Meta.Write(sourceURI, device.DemoTags(w.clock()))
	if err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := w.Files.EnsureDir(w.ImagesDir); err != nil {
		return "", fmt.Errorf("failed to create images dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s.%s", w.clock().UnixMilli(), id, device.GuessExtension(source))
	target := filepath.Join(w.ImagesDir, name)
	if err := w.Files.Copy(tagged, target); err != nil {
		return "", fmt.Errorf("failed to copy into app storage: %w", err)
	}
	targetURI := device.NormalizeURI(target)

	if err := w.publish(ctx, targetURI); err != nil {
		return "", err
	}
	return targetURI, nil
}

func (w *Workflow) publish(ctx context.Context, uri string) error {
	granted, err := w.Gallery.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request gallery permission: %w", err)
	}
	if !granted {
		// Non-fatal: the app-storage copy already exists.
		w.Notifier.Notify(w.Tr(i18n.KeyNoPermissionTitle, nil), w.Tr(i18n.KeyNoPermissionBody, nil))
		return nil
	}

	asset, err := w.Gallery.CreateAsset(ctx, uri)
	if err != nil {
		return fmt.Errorf("failed to create gallery asset: %w", err)
	}

	album, err := w.Gallery.Album(ctx, w.AlbumName)
	if err != nil {
		return fmt.Errorf("failed to look up album: %w", err)
	}
	if album != nil {
		if err := w.Gallery.AddAssets(ctx, []device.Asset{asset}, album); err != nil {
			return fmt.Errorf("failed to add asset to album: %w", err)
		}
		return nil
	}
	if _, err := w.Gallery.CreateAlbum(ctx, w.AlbumName, asset); err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}
