package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7-mb/speciesid/internal/collection"
	"github.com/7-mb/speciesid/internal/config"
	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/identify"
	"github.com/7-mb/speciesid/internal/notify"
	"github.com/7-mb/speciesid/internal/payload"
)

type testEnv struct {
	handler *Handler
	store   *collection.Store
	mux     *http.ServeMux
}

func newTestEnv(t *testing.T, endpoint string) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Endpoint = endpoint
	cfg.ImagesDir = filepath.Join(root, "images")
	cfg.UploadsDir = filepath.Join(root, "uploads")
	cfg.GalleryDir = filepath.Join(root, "gallery")
	cfg.Language = i18n.English

	files := device.DiskStore{}
	transformer := device.LocalTransformer{}
	tr := i18n.Bind(cfg.Language)
	workflow := &collection.Workflow{
		Meta:      device.NewExifWriter(filepath.Join(cfg.ImagesDir, "tmp"), files),
		Files:     files,
		Gallery:   device.NewFolderGallery(cfg.GalleryDir, cfg.GalleryPermission, files),
		ImagesDir: cfg.ImagesDir,
		AlbumName: cfg.AlbumName,
		Notifier:  &notify.Recorder{},
		Tr:        tr,
	}
	store := collection.NewStore(device.NoPicker{}, files, workflow, &notify.Recorder{}, tr)
	controller := identify.NewController(cfg.Endpoint, cfg.Lat, cfg.Lon, payload.NewBuilder(transformer))
	handler := New(store, controller, transformer, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/images", handler.HandleImages)
	mux.HandleFunc("/api/images/", handler.HandleImageDetail)
	mux.HandleFunc("/api/identify", handler.HandleIdentify)
	mux.HandleFunc("/api/results", handler.HandleResults)

	return &testEnv{handler: handler, store: store, mux: mux}
}

// jpegBytes renders a solid JPEG; shade varies the content hash.
func jpegBytes(t *testing.T, width, height int, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: 120, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, count int) {
	t.Helper()
	files := make(map[string][]byte, count)
	for i := 0; i < count; i++ {
		files[fmt.Sprintf("plant%d.jpg", i)] = jpegBytes(t, 600, 400, uint8(10*i))
	}
	body, contentType := multipartBody(t, "files", files)
	rec := e.do(t, http.MethodPost, "/api/images", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *testEnv) waitSettled(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.store.Wait(ctx))
}

const floridResponse = `{
  "top_n": {
    "by_combined": {
      "id": [1021660, 1037490],
      "name": ["Bellis perennis L.", "Taraxacum officinale aggr."],
      "combined_model": [0.91, 0.04]
    }
  }
}`

func TestUploadPersistIdentify(t *testing.T) {
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p identify.Payload
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&p)) {
			assert.Len(t, p.Images, 2)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(floridResponse))
	}))
	defer service.Close()

	env := newTestEnv(t, service.URL)
	env.upload(t, 2)
	env.waitSettled(t)

	// The list reflects two saved members.
	rec := env.do(t, http.MethodGet, "/api/images", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Images   []imageView `json:"images"`
		Selected string      `json:"selected"`
		Saved    string      `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Images, 2)
	assert.Equal(t, "2/5", list.Selected)
	assert.Equal(t, "2/2", list.Saved)
	for _, img := range list.Images {
		assert.Equal(t, string(collection.StateSaved), img.State)
		assert.NotEmpty(t, img.SavedURI)
	}

	// Identify and check the enriched result rows.
	rec = env.do(t, http.MethodPost, "/api/identify", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Results     []resultView `json:"results"`
		RawResponse string       `json:"raw_response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Results, 2)
	assert.Equal(t, 1021660, result.Results[0].TaxonID)
	require.NotNil(t, result.Results[0].Percent)
	assert.InDelta(t, 91.0, *result.Results[0].Percent, 1e-9)
	assert.Equal(t, "Common Daisy", result.Results[0].LocalizedName)
	assert.Contains(t, result.Results[0].InfoURL, "infoflora.ch")
	assert.Contains(t, result.RawResponse, "\"top_n\"")

	// /api/results reports the same rows, now idle.
	rec = env.do(t, http.MethodGet, "/api/results", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results struct {
		Results     []resultView `json:"results"`
		Identifying bool         `json:"identifying"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results.Results, 2)
	assert.False(t, results.Identifying)
}

func TestUploadAtCapacity(t *testing.T) {
	env := newTestEnv(t, "http://unused")

	env.upload(t, 5)
	env.waitSettled(t)
	require.Equal(t, 5, env.store.Len())

	body, contentType := multipartBody(t, "files", map[string][]byte{
		"extra.jpg": jpegBytes(t, 100, 100, 200),
	})
	rec := env.do(t, http.MethodPost, "/api/images", contentType, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "At most 5 images")
}

func TestDuplicateUploadIsDropped(t *testing.T) {
	env := newTestEnv(t, "http://unused")

	data := jpegBytes(t, 100, 100, 42)
	for i := 0; i < 2; i++ {
		body, contentType := multipartBody(t, "files", map[string][]byte{"same.jpg": data})
		rec := env.do(t, http.MethodPost, "/api/images", contentType, body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	env.waitSettled(t)
	assert.Equal(t, 1, env.store.Len(), "identical bytes hash to the same upload path")
}

func TestURLAcquire(t *testing.T) {
	data := jpegBytes(t, 200, 150, 77)
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer source.Close()

	env := newTestEnv(t, "http://unused")
	reqBody := fmt.Sprintf(`{"image_url": %q}`, source.URL+"/meadow.jpg")
	rec := env.do(t, http.MethodPost, "/api/images", "application/json", bytes.NewBufferString(reqBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env.waitSettled(t)
	images := env.store.Snapshot()
	require.Len(t, images, 1)
	assert.Equal(t, 200, images[0].Source.Width)
}

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t, "http://unused")
	env.upload(t, 1)
	env.waitSettled(t)
	id := env.store.Snapshot()[0].ID

	rec := env.do(t, http.MethodDelete, "/api/images/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.store.Len())

	rec = env.do(t, http.MethodDelete, "/api/images/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCropImage(t *testing.T) {
	env := newTestEnv(t, "http://unused")
	env.upload(t, 1)
	env.waitSettled(t)
	before := env.store.Snapshot()[0]

	body, contentType := multipartBody(t, "file", map[string][]byte{
		"cropped.jpg": jpegBytes(t, 300, 300, 99),
	})
	rec := env.do(t, http.MethodPost, "/api/images/"+before.ID+"/crop", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env.waitSettled(t)
	after := env.store.Snapshot()[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, 300, after.Source.Width)
	assert.NotEqual(t, before.PersistedRef, after.PersistedRef)
	assert.Equal(t, collection.StateSaved, after.State)

	rec = env.do(t, http.MethodPost, "/api/images/no-such-id/crop", contentType, &bytes.Buffer{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "crop without an upload is rejected")
}

func TestIdentifyWithoutEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/identify", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "No identification API is configured.")
}

func TestIdentifyServiceFailure(t *testing.T) {
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "florid down", http.StatusBadGateway)
	}))
	defer service.Close()

	env := newTestEnv(t, service.URL)
	rec := env.do(t, http.MethodPost, "/api/identify", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "florid down")
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "http://unused")

	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodPut, "/api/images", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, "/api/identify", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodPost, "/api/results", "", nil).Code)
}
