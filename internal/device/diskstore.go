package device

import (
	"fmt"
	"io"
	"os"
)

// DiskStore is the local filesystem FileStore.
type DiskStore struct{}

func (DiskStore) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func (DiskStore) Copy(src, dst string) error {
	in, err := os.Open(URIToPath(src))
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(URIToPath(dst))
	if err != nil {
		return fmt.Errorf("failed to create copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy contents: %w", err)
	}
	return out.Close()
}

func (DiskStore) Delete(path string) error {
	return os.Remove(URIToPath(path))
}
