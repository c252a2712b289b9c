package device

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFolderGalleryPublish(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "gallery")
	src := t.TempDir()
	gallery := NewFolderGallery(root, true, DiskStore{})

	granted, err := gallery.RequestPermission(ctx)
	if err != nil || !granted {
		t.Fatalf("RequestPermission = %v, %v, want granted", granted, err)
	}

	first := filepath.Join(src, "a.jpg")
	if err := os.WriteFile(first, []byte("photo-a"), 0644); err != nil {
		t.Fatal(err)
	}

	asset, err := gallery.CreateAsset(ctx, NormalizeURI(first))
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	// First use: album does not exist yet.
	album, err := gallery.Album(ctx, "SpeciesID")
	if err != nil {
		t.Fatalf("Album: %v", err)
	}
	if album != nil {
		t.Fatal("album should not exist before first publish")
	}

	if _, err := gallery.CreateAlbum(ctx, "SpeciesID", asset); err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "SpeciesID", "a.jpg")); err != nil {
		t.Errorf("first asset not in album: %v", err)
	}

	// Second use: append to the existing album.
	second := filepath.Join(src, "b.jpg")
	if err := os.WriteFile(second, []byte("photo-b"), 0644); err != nil {
		t.Fatal(err)
	}
	asset2, err := gallery.CreateAsset(ctx, NormalizeURI(second))
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	album, err = gallery.Album(ctx, "SpeciesID")
	if err != nil || album == nil {
		t.Fatalf("Album after create = %v, %v, want album", album, err)
	}
	if err := gallery.AddAssets(ctx, []Asset{asset2}, album); err != nil {
		t.Fatalf("AddAssets: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "SpeciesID", "b.jpg")); err != nil {
		t.Errorf("second asset not in album: %v", err)
	}
}

func TestFolderGalleryPermissionDenied(t *testing.T) {
	gallery := NewFolderGallery(t.TempDir(), false, DiskStore{})
	granted, err := gallery.RequestPermission(context.Background())
	if err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if granted {
		t.Fatal("permission should be denied")
	}
}
