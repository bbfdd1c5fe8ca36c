package analytics

import (
	"cmp"
	"slices"

	"github.com/scmmishra/geolink/internal/models"
)

// Summary is the per-link analytics report.
type Summary struct {
	TrackingID  string              `json:"trackingId"`
	OriginalURL string              `json:"originalUrl"`
	TotalClicks int                 `json:"totalClicks"`
	ByCountry   map[string]int      `json:"byCountry"`
	ByDevice    map[string]int      `json:"byDevice"`
	ClickData   []models.ClickEvent `json:"clickData"`
}

// Summarize counts a link's clicks by country and device type in one pass.
// Keys are the values stored on each event; the link is not modified.
func Summarize(link models.Link) Summary {
	s := Summary{
		TrackingID:  link.TrackingID,
		OriginalURL: link.OriginalURL,
		TotalClicks: len(link.Clicks),
		ByCountry:   make(map[string]int),
		ByDevice:    make(map[string]int),
		ClickData:   link.Clicks,
	}
	for _, c := range link.Clicks {
		s.ByCountry[c.Country]++
		s.ByDevice[c.DeviceType]++
	}
	if s.ClickData == nil {
		s.ClickData = []models.ClickEvent{}
	}
	return s
}

type LocationSummary struct {
	TrackingID   string                 `json:"trackingId"`
	TotalEntries int                    `json:"totalEntries"`
	Entries      []models.LocationEntry `json:"entries"`
}

func Locations(link models.Link) LocationSummary {
	entries := link.LocationEntries
	if entries == nil {
		entries = []models.LocationEntry{}
	}
	return LocationSummary{
		TrackingID:   link.TrackingID,
		TotalEntries: len(entries),
		Entries:      entries,
	}
}

// Tracking is a location entry tagged with the link it belongs to.
type Tracking struct {
	TrackingID string `json:"trackingId"`
	models.LocationEntry
}

// Trackings flattens the location entries of all links, newest first.
func Trackings(links []models.Link) []Tracking {
	out := []Tracking{}
	for _, l := range links {
		for _, e := range l.LocationEntries {
			out = append(out, Tracking{TrackingID: l.TrackingID, LocationEntry: e})
		}
	}
	slices.SortStableFunc(out, func(a, b Tracking) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})
	return out
}
