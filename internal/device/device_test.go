package device

import (
	"testing"
)

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare path", "/tmp/photo.jpg", "file:///tmp/photo.jpg"},
		{"relative path", "photo.jpg", "file://photo.jpg"},
		{"file scheme untouched", "file:///tmp/photo.jpg", "file:///tmp/photo.jpg"},
		{"content scheme untouched", "content://media/1", "content://media/1"},
		{"http untouched", "http://example.org/a.jpg", "http://example.org/a.jpg"},
		{"https untouched", "https://example.org/a.jpg", "https://example.org/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURI(tt.in); got != tt.want {
				t.Errorf("NormalizeURI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestURIToPath(t *testing.T) {
	if got := URIToPath("file:///tmp/photo.jpg"); got != "/tmp/photo.jpg" {
		t.Errorf("URIToPath = %q, want /tmp/photo.jpg", got)
	}
	if got := URIToPath("/tmp/photo.jpg"); got != "/tmp/photo.jpg" {
		t.Errorf("URIToPath on bare path = %q, want unchanged", got)
	}
}

func TestGuessExtension(t *testing.T) {
	tests := []struct {
		name string
		img  PickedImage
		want string
	}{
		{"from suffix", PickedImage{Path: "/tmp/a.JPEG"}, "jpeg"},
		{"suffix wins over mime", PickedImage{Path: "/tmp/a.heic", MIME: "image/png"}, "heic"},
		{"png mime fallback", PickedImage{Path: "/tmp/noext", MIME: "image/png"}, "png"},
		{"default jpg", PickedImage{Path: "/tmp/noext"}, "jpg"},
		{"default jpg for unknown mime", PickedImage{Path: "/tmp/noext", MIME: "image/webp"}, "jpg"},
		{"file uri", PickedImage{Path: "file:///tmp/a.png"}, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuessExtension(tt.img); got != tt.want {
				t.Errorf("GuessExtension(%+v) = %q, want %q", tt.img, got, tt.want)
			}
		})
	}
}
