package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scmmishra/geolink/internal/registry"
	"github.com/scmmishra/geolink/internal/tracking"
)

type RedirectHandler struct {
	Recorder *tracking.ClickRecorder
}

func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// chi's RealIP middleware already sets RemoteAddr from X-Forwarded-For/X-Real-IP
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if ip == "" {
		ip = r.RemoteAddr
	}

	target, err := h.Recorder.RecordClick(id, ip, r.UserAgent(), r.Referer())
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, "Link not found", http.StatusNotFound)
			return
		}
		writeError(w, err, "Link not found")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
