// Package config loads the pipeline configuration: hard defaults, overlaid by
// an optional YAML file, overlaid by SPECIESID_* environment variables. A
// .env file is loaded by the CLI before this package runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/7-mb/speciesid/internal/i18n"
)

// DefaultFile is the config file consulted when none is given explicitly.
const DefaultFile = "speciesid.yml"

type Config struct {
	// Endpoint is the identification service URL. Empty means unconfigured,
	// which the request controller rejects before any network call.
	Endpoint string `yaml:"endpoint"`

	// ImagesDir receives the persisted app-storage copies.
	ImagesDir string `yaml:"images_dir"`
	// UploadsDir receives raw incoming uploads before they are tracked.
	UploadsDir string `yaml:"uploads_dir"`
	// GalleryDir is the root of the folder-backed gallery.
	GalleryDir string `yaml:"gallery_dir"`
	// AlbumName is the gallery album saved images are published to.
	AlbumName string `yaml:"album_name"`
	// GalleryPermission stands in for the OS media-library prompt.
	GalleryPermission bool `yaml:"gallery_permission"`

	Language i18n.Language `yaml:"language"`

	// Payload location fields. Fixed demo coordinates by default; the service
	// expects them but the app does not read device location.
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

func Default() Config {
	return Config{
		Endpoint:          "https://speciesid.wsl.ch/florid",
		ImagesDir:         "data/images",
		UploadsDir:        "data/uploads",
		GalleryDir:        "data/gallery",
		AlbumName:         "SpeciesID",
		GalleryPermission: true,
		Language:          i18n.DefaultLanguage,
		Lat:               47.33965229871837,
		Lon:               7.8931488585743645,
	}
}

// Load builds the effective configuration. A missing file is fine when path
// is the default; an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, defaults apply.
	default:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(&cfg)

	if !i18n.IsLanguage(string(cfg.Language)) {
		cfg.Language = i18n.DefaultLanguage
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if value := os.Getenv(key); value != "" {
			*dst = value
		}
	}
	setString("SPECIESID_ENDPOINT", &cfg.Endpoint)
	setString("SPECIESID_IMAGES_DIR", &cfg.ImagesDir)
	setString("SPECIESID_UPLOADS_DIR", &cfg.UploadsDir)
	setString("SPECIESID_GALLERY_DIR", &cfg.GalleryDir)
	setString("SPECIESID_ALBUM_NAME", &cfg.AlbumName)

	if value := os.Getenv("SPECIESID_LANGUAGE"); value != "" {
		cfg.Language = i18n.Language(value)
	}
	if value := os.Getenv("SPECIESID_GALLERY_PERMISSION"); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			cfg.GalleryPermission = b
		}
	}
	if value := os.Getenv("SPECIESID_LAT"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.Lat = f
		}
	}
	if value := os.Getenv("SPECIESID_LON"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.Lon = f
		}
	}
}
