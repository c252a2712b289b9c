package handlers

import (
	"errors"
	"net/http"

	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/identify"
)

// HandleIdentify runs one identification request against the current
// collection. The controller enforces single flight; a concurrent call is
// answered with 409 instead of a second network request.
func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, rawText, err := h.controller.Identify(r.Context(), h.store.Snapshot())
	if err != nil {
		title := h.tr(i18n.KeyErrorTitle, nil)
		switch {
		case errors.Is(err, identify.ErrInFlight):
			h.writeError(w, title+": "+err.Error(), http.StatusConflict)
		case errors.Is(err, identify.ErrNoEndpoint):
			h.writeError(w, title+": "+h.tr(i18n.KeyMissingAPIURL, nil), http.StatusServiceUnavailable)
		default:
			h.writeError(w, title+": "+err.Error(), http.StatusBadGateway)
		}
		return
	}

	h.writeJSON(w, map[string]any{
		"results":      h.toResultViews(rows),
		"raw_response": rawText,
	})
}

// HandleResults reports the controller's current value slots.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, rawText, requesting := h.controller.Results()
	h.writeJSON(w, map[string]any{
		"results":      h.toResultViews(rows),
		"raw_response": rawText,
		"identifying":  requesting,
	})
}
