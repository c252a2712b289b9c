package handlers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/7-mb/speciesid/internal/collection"
	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
)

const maxUploadBytes = 10 * 1024 * 1024

// HandleImages serves GET (list) and POST (acquire) on /api/images.
func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, map[string]any{
			"images":   toImageViews(h.store.Snapshot()),
			"selected": h.store.SelectedCountText(),
			"saved":    h.store.SavedCountText(),
		})
	case http.MethodPost:
		h.handleAcquire(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAcquire accepts either a JSON body with an image URL or a multipart
// upload with one or more files. The whole batch is dropped with a limit
// notice when the collection is already full; a batch that merely exceeds the
// remaining capacity is truncated silently.
func (h *Handler) handleAcquire(w http.ResponseWriter, r *http.Request) {
	if h.store.Len() >= collection.MaxImages {
		h.writeError(w, h.tr(i18n.KeyLimitBody, map[string]any{"max": collection.MaxImages}), http.StatusConflict)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLAcquire(w, r)
		return
	}
	h.handleFileAcquire(w, r)
}

func (h *Handler) handleURLAcquire(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	data, err := h.downloadImage(request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to fetch image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	parts := strings.Split(request.ImageURL, "/")
	filename := parts[len(parts)-1]
	if filename == "" {
		filename = "image.jpg"
	}

	picked, err := h.savePicked(data, filename, "")
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	accepted := h.store.Add([]device.PickedImage{picked})
	h.writeJSON(w, map[string]any{
		"added":    len(accepted),
		"images":   toImageViews(accepted),
		"selected": h.store.SelectedCountText(),
	})
}

func (h *Handler) handleFileAcquire(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		h.writeError(w, "No files in upload", http.StatusBadRequest)
		return
	}

	batch := make([]device.PickedImage, 0, len(files))
	for _, header := range files {
		picked, err := h.readUpload(header)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		batch = append(batch, picked)
	}

	accepted := h.store.Add(batch)
	h.writeJSON(w, map[string]any{
		"added":    len(accepted),
		"images":   toImageViews(accepted),
		"selected": h.store.SelectedCountText(),
	})
}

// HandleImageDetail serves DELETE /api/images/{id} and POST
// /api/images/{id}/crop.
func (h *Handler) HandleImageDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/images/")
	id, isCrop := strings.CutSuffix(rest, "/crop")
	if id == "" || strings.Contains(id, "/") {
		h.writeError(w, "Image not found", http.StatusNotFound)
		return
	}

	switch {
	case isCrop && r.Method == http.MethodPost:
		h.handleCrop(w, r, id)
	case !isCrop && r.Method == http.MethodDelete:
		if !h.store.Remove(id) {
			h.writeError(w, "Image not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, map[string]any{"removed": id, "selected": h.store.SelectedCountText()})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCrop accepts the client-side cropper's output for an existing member
// and restarts its persistence.
func (h *Handler) handleCrop(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	var header *multipart.FileHeader
	for _, name := range []string{"files", "file"} {
		if uploads := r.MultipartForm.File[name]; len(uploads) > 0 {
			header = uploads[0]
			break
		}
	}
	if header == nil {
		h.writeError(w, "No file in upload", http.StatusBadRequest)
		return
	}

	picked, err := h.readUpload(header)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.store.CropTo(id, picked) {
		h.writeError(w, "Image not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]any{"cropped": id})
}

func (h *Handler) readUpload(header *multipart.FileHeader) (device.PickedImage, error) {
	file, err := header.Open()
	if err != nil {
		return device.PickedImage{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return device.PickedImage{}, fmt.Errorf("failed to read file contents: %w", err)
	}
	if len(data) >= maxUploadBytes {
		return device.PickedImage{}, fmt.Errorf("file too large (max 10MB)")
	}

	return h.savePicked(data, header.Filename, header.Header.Get("Content-Type"))
}

// savePicked writes the bytes into the uploads dir under a content-hash name
// and describes them as a picked image. Identical uploads land on the same
// path, which the store's dedup then drops.
func (h *Handler) savePicked(data []byte, filename, mimeType string) (device.PickedImage, error) {
	if err := os.MkdirAll(h.cfg.UploadsDir, 0755); err != nil {
		return device.PickedImage{}, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	sum := md5.Sum(data)
	name := hex.EncodeToString(sum[:]) + filepath.Ext(filename)
	path := filepath.Join(h.cfg.UploadsDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return device.PickedImage{}, fmt.Errorf("failed to save image: %w", err)
	}
	slog.Info("Image saved", "filename", name)

	picked := device.PickedImage{Path: path, MIME: mimeType}
	width, height, err := h.transformer.Measure(context.Background(), device.NormalizeURI(path))
	if err != nil {
		slog.Warn("Failed to get image dimensions", "error", err)
	} else {
		picked.Width, picked.Height = width, height
	}
	return picked, nil
}

func (h *Handler) downloadImage(imageURL string) ([]byte, error) {
	resp, err := h.httpClient.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
}
