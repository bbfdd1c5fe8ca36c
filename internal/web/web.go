package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static/*
var staticFS embed.FS

// CapturePage serves the page a redirect lands on. It asks the browser for
// its position, reports it to /api/track, then forwards to the destination.
type CapturePage struct {
	page []byte
}

func NewCapturePage() (*CapturePage, error) {
	page, err := fs.ReadFile(staticFS, "static/client.html")
	if err != nil {
		return nil, err
	}
	return &CapturePage{page: page}, nil
}

func (c *CapturePage) RegisterRoutes(r chi.Router) {
	r.Get("/client.html", c.ServeHTTP)
	r.Get("/track", c.ServeHTTP)
}

func (c *CapturePage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(c.page)
}
