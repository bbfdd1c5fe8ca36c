package handlers

import (
	"net/http"

	"github.com/scmmishra/geolink/internal/models"
	"github.com/scmmishra/geolink/internal/tracking"
)

type TrackHandler struct {
	Correlator *tracking.LocationCorrelator
}

type trackRequest struct {
	ID       string `json:"id"`
	Location *struct {
		Lat      *float64 `json:"lat"`
		Lng      *float64 `json:"lng"`
		Accuracy *float64 `json:"accuracy"`
		Source   string   `json:"source"`
	} `json:"location"`
}

func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Location == nil || req.Location.Lat == nil || req.Location.Lng == nil {
		jsonError(w, "Missing data", http.StatusBadRequest)
		return
	}

	loc := &models.Location{
		Lat:      *req.Location.Lat,
		Lng:      *req.Location.Lng,
		Accuracy: req.Location.Accuracy,
		Source:   req.Location.Source,
	}
	if err := h.Correlator.RecordLocation(req.ID, loc); err != nil {
		writeError(w, err, "Link not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
