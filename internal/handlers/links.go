package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/analytics"
	"github.com/scmmishra/geolink/internal/registry"
	"github.com/scmmishra/geolink/internal/slug"
)

type LinkHandler struct {
	Registry *registry.Registry
	BaseURL  string
}

type createLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
}

type createLinkResponse struct {
	OriginalURL string    `json:"originalUrl"`
	TrackingID  string    `json:"trackingId"`
	TrackingURL string    `json:"trackingUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.OriginalURL == "" {
		jsonError(w, "URL required", http.StatusBadRequest)
		return
	}

	link, err := h.Registry.Create(req.OriginalURL)
	if err != nil {
		writeError(w, err, "link not found")
		return
	}
	log.Info().Str("tracking_id", link.TrackingID).Str("url", link.OriginalURL).Msg("link created")

	writeJSON(w, http.StatusCreated, createLinkResponse{
		OriginalURL: link.OriginalURL,
		TrackingID:  link.TrackingID,
		TrackingURL: link.TrackingURL(h.BaseURL),
		CreatedAt:   link.CreatedAt,
	})
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Registry.List())
}

func (h *LinkHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	link, ok := h.Registry.Find(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "Link not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(link))
}

func (h *LinkHandler) Locations(w http.ResponseWriter, r *http.Request) {
	link, ok := h.Registry.Find(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "Link not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Locations(link))
}

// Trackings lists every location entry across links, newest first.
func (h *LinkHandler) Trackings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Trackings(h.Registry.List()))
}

// Destination is called by the capture page to learn where to forward.
func (h *LinkHandler) Destination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !slug.Valid(id) {
		jsonError(w, "Missing or invalid ID", http.StatusBadRequest)
		return
	}
	if !h.Registry.Loaded() {
		jsonError(w, "database not initialized", http.StatusInternalServerError)
		return
	}

	link, ok := h.Registry.Find(id)
	if !ok {
		jsonError(w, "Link not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"originalUrl": link.OriginalURL})
}
