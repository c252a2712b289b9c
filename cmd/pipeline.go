package cmd

import (
	"path/filepath"

	"github.com/7-mb/speciesid/internal/collection"
	"github.com/7-mb/speciesid/internal/config"
	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/identify"
	"github.com/7-mb/speciesid/internal/notify"
	"github.com/7-mb/speciesid/internal/payload"
)

// pipeline bundles the wired-up core components.
type pipeline struct {
	store       *collection.Store
	controller  *identify.Controller
	transformer device.Transformer
}

// buildPipeline assembles the pipeline against the local capability
// implementations.
func buildPipeline(cfg config.Config, picker device.Picker, notifier notify.Notifier) pipeline {
	files := device.DiskStore{}
	transformer := device.LocalTransformer{}
	tr := i18n.Bind(cfg.Language)

	workflow := &collection.Workflow{
		Meta:      device.NewExifWriter(filepath.Join(cfg.ImagesDir, "tmp"), files),
		Files:     files,
		Gallery:   device.NewFolderGallery(cfg.GalleryDir, cfg.GalleryPermission, files),
		ImagesDir: cfg.ImagesDir,
		AlbumName: cfg.AlbumName,
		Notifier:  notifier,
		Tr:        tr,
	}

	store := collection.NewStore(picker, files, workflow, notifier, tr)
	builder := payload.NewBuilder(transformer)
	controller := identify.NewController(cfg.Endpoint, cfg.Lat, cfg.Lon, builder)

	return pipeline{store: store, controller: controller, transformer: transformer}
}
