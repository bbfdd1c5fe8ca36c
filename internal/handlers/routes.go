package handlers

import "github.com/go-chi/chi/v5"

// API groups the JSON endpoints and the redirect.
type API struct {
	Links    *LinkHandler
	Redirect *RedirectHandler
	Track    *TrackHandler
}

func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/r/{id}", a.Redirect.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/links", a.Links.Create)
		r.Get("/links", a.Links.List)
		r.Get("/links/{id}/analytics", a.Links.Analytics)
		r.Get("/links/{id}/locations", a.Links.Locations)
		r.Get("/links/{id}/qr", a.Links.QRCode)
		r.Get("/link/{id}", a.Links.Destination)
		r.Post("/track", a.Track.ServeHTTP)
		r.Get("/trackings", a.Links.Trackings)
	})
}
