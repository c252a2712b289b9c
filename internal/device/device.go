// Package device defines the narrow capabilities the identification pipeline
// depends on (picker, file store, metadata writer, gallery, image transform)
// plus local implementations of each. The pipeline only ever talks to the
// interfaces, so platform-specific integrations can be swapped in.
package device

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrCancelled is the distinguished picker/camera/cropper outcome for a user
// cancel. It is not a failure: callers swallow it without surfacing a notice.
var ErrCancelled = errors.New("picker cancelled")

// PickedImage is one image as produced by the picker, camera, or cropper.
// Width/Height are hints and may be zero when the source did not report them.
type PickedImage struct {
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	MIME   string `json:"mime,omitempty"`
}

// PickOptions control a multi-select gallery pick.
type PickOptions struct {
	MinFiles int
	MaxFiles int
}

// CaptureOptions control a camera capture with an immediate crop step.
type CaptureOptions struct {
	Width  int
	Height int
}

// CropOptions control cropping an already-picked image.
type CropOptions struct {
	Path   string
	Width  int
	Height int
}

// Picker is the media acquisition capability. Implementations return
// ErrCancelled (possibly wrapped) when the user dismissed the dialog.
type Picker interface {
	Pick(ctx context.Context, opts PickOptions) ([]PickedImage, error)
	Capture(ctx context.Context, opts CaptureOptions) (PickedImage, error)
	Crop(ctx context.Context, opts CropOptions) (PickedImage, error)
	// Cleanup releases picker-held temp files. Best effort.
	Cleanup(path string) error
}

// FileStore is the app-storage capability.
type FileStore interface {
	// EnsureDir creates dir and intermediates if absent. Idempotent.
	EnsureDir(dir string) error
	Copy(src, dst string) error
	// Delete removes a file. Callers treat failures as advisory.
	Delete(path string) error
}

// MetadataWriter embeds a tag record into an image, returning the location of
// the tagged copy. The input file is left untouched.
type MetadataWriter interface {
	Write(uri string, tags ExifTags) (string, error)
}

// Asset is an opaque handle to an image published to the device gallery.
type Asset struct {
	URI string
}

// Gallery is the media-library capability.
type Gallery interface {
	RequestPermission(ctx context.Context) (bool, error)
	CreateAsset(ctx context.Context, uri string) (Asset, error)
	// Album returns the named album, or nil when it does not exist yet.
	Album(ctx context.Context, name string) (*Album, error)
	CreateAlbum(ctx context.Context, name string, first Asset) (*Album, error)
	AddAssets(ctx context.Context, assets []Asset, album *Album) error
}

// Album identifies a gallery album.
type Album struct {
	Name string
}

// ResizeSpec is an exact target size for Transformer.EncodeBase64JPEG.
type ResizeSpec struct {
	Width  int
	Height int
}

// Transformer measures and re-encodes images.
type Transformer interface {
	Measure(ctx context.Context, uri string) (width, height int, err error)
	// EncodeBase64JPEG re-encodes the image as JPEG and returns it base64
	// encoded. A nil resize keeps the source dimensions.
	EncodeBase64JPEG(ctx context.Context, uri string, resize *ResizeSpec) (string, error)
}

// NormalizeURI turns a bare filesystem path into a file URI. Already-schemed
// references pass through untouched.
func NormalizeURI(path string) string {
	for _, scheme := range []string{"file://", "content://", "http://", "https://"} {
		if strings.HasPrefix(path, scheme) {
			return path
		}
	}
	return "file://" + path
}

// URIToPath strips the file scheme so local implementations can hit the
// filesystem directly.
func URIToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// GuessExtension derives a file extension for a picked image: filename suffix
// first, then declared MIME type, then jpg.
func GuessExtension(img PickedImage) string {
	ext := strings.TrimPrefix(filepath.Ext(URIToPath(img.Path)), ".")
	if ext != "" && isAlnum(ext) {
		return strings.ToLower(ext)
	}
	if img.MIME == "image/png" {
		return "png"
	}
	return "jpg"
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
