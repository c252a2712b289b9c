package device

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// FolderGallery is a Gallery backed by a pictures directory: each album is a
// subdirectory, each asset a copied file. The permission gate stands in for
// the OS media-library prompt and is fixed at construction.
type FolderGallery struct {
	root    string
	granted bool
	files   FileStore

	mu     sync.Mutex
	albums map[string]*Album
}

func NewFolderGallery(root string, granted bool, files FileStore) *FolderGallery {
	return &FolderGallery{
		root:    root,
		granted: granted,
		files:   files,
		albums:  make(map[string]*Album),
	}
}

func (g *FolderGallery) RequestPermission(ctx context.Context) (bool, error) {
	return g.granted, nil
}

func (g *FolderGallery) CreateAsset(ctx context.Context, uri string) (Asset, error) {
	if err := g.files.EnsureDir(g.root); err != nil {
		return Asset{}, fmt.Errorf("failed to create gallery root: %w", err)
	}
	dst := filepath.Join(g.root, filepath.Base(URIToPath(uri)))
	if err := g.files.Copy(uri, dst); err != nil {
		return Asset{}, fmt.Errorf("failed to import asset: %w", err)
	}
	return Asset{URI: NormalizeURI(dst)}, nil
}

func (g *FolderGallery) Album(ctx context.Context, name string) (*Album, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.albums[name], nil
}

func (g *FolderGallery) CreateAlbum(ctx context.Context, name string, first Asset) (*Album, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.files.EnsureDir(filepath.Join(g.root, name)); err != nil {
		return nil, fmt.Errorf("failed to create album dir: %w", err)
	}
	album := &Album{Name: name}
	g.albums[name] = album

	if err := g.addLocked([]Asset{first}, album); err != nil {
		return nil, err
	}
	return album, nil
}

func (g *FolderGallery) AddAssets(ctx context.Context, assets []Asset, album *Album) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLocked(assets, album)
}

func (g *FolderGallery) addLocked(assets []Asset, album *Album) error {
	dir := filepath.Join(g.root, album.Name)
	for _, asset := range assets {
		dst := filepath.Join(dir, filepath.Base(URIToPath(asset.URI)))
		if err := g.files.Copy(asset.URI, dst); err != nil {
			return fmt.Errorf("failed to add asset to album %s: %w", album.Name, err)
		}
	}
	return nil
}
