// Package handlers is the HTTP surface over the identification pipeline. It
// plays the role of the app UI: it triggers acquisition, crop, removal, and
// identification, and converts pipeline errors into user-visible responses.
package handlers

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/7-mb/speciesid/internal/collection"
	"github.com/7-mb/speciesid/internal/config"
	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/identify"
	"github.com/7-mb/speciesid/internal/taxa"
)

type Handler struct {
	store       *collection.Store
	controller  *identify.Controller
	transformer device.Transformer
	cfg         config.Config
	tr          i18n.Func
	httpClient  *http.Client
}

func New(store *collection.Store, controller *identify.Controller, transformer device.Transformer, cfg config.Config) *Handler {
	return &Handler{
		store:       store,
		controller:  controller,
		transformer: transformer,
		cfg:         cfg,
		tr:          i18n.Bind(cfg.Language),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// imageView is the wire shape of one tracked image.
type imageView struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	SavedURI string `json:"saved_uri,omitempty"`
	State    string `json:"state"`
}

func toImageViews(images []collection.TrackedImage) []imageView {
	views := make([]imageView, 0, len(images))
	for _, img := range images {
		views = append(views, imageView{
			ID:       img.ID,
			Path:     img.Source.Path,
			Width:    img.Source.Width,
			Height:   img.Source.Height,
			SavedURI: img.PersistedRef,
			State:    string(img.State),
		})
	}
	return views
}

// resultView enriches a ranked row with the localized taxon reference. A nil
// percent stands for the not-a-number sentinel and renders blank.
type resultView struct {
	TaxonID       int      `json:"id"`
	Name          string   `json:"name"`
	Percent       *float64 `json:"percent"`
	LocalizedName string   `json:"localized_name,omitempty"`
	InfoURL       string   `json:"info_url,omitempty"`
}

func (h *Handler) toResultViews(rows []identify.ResultRow) []resultView {
	views := make([]resultView, 0, len(rows))
	for _, row := range rows {
		view := resultView{
			TaxonID: row.TaxonID,
			Name:    row.Name,
		}
		if !math.IsNaN(row.Percent) {
			percent := row.Percent
			view.Percent = &percent
		}
		if taxon, ok := taxa.Lookup(row.TaxonID); ok {
			view.LocalizedName = taxa.LocalizedName(taxon, h.cfg.Language)
			view.InfoURL = taxa.LocalizedURL(taxon, h.cfg.Language)
		}
		views = append(views, view)
	}
	return views
}

