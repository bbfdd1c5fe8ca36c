package models

import (
	"strings"
	"time"
)

type Link struct {
	OriginalURL     string          `json:"originalUrl"`
	TrackingID      string          `json:"trackingId"`
	CreatedAt       time.Time       `json:"createdAt"`
	Clicks          []ClickEvent    `json:"clicks"`
	LocationEntries []LocationEntry `json:"locationEntries"`
}

// TrackingURL returns the public redirect URL for the link.
func (l *Link) TrackingURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + l.TrackingID
}

// State is the whole persisted document. A committed State is never
// mutated in place; writers build a new one.
type State struct {
	Links []Link `json:"links"`
}

func (s *State) Find(trackingID string) (int, bool) {
	for i := range s.Links {
		if s.Links[i].TrackingID == trackingID {
			return i, true
		}
	}
	return -1, false
}
