package store

import (
	"fmt"

	"github.com/scmmishra/geolink/internal/models"
)

// Store persists the registry as one document: Load reads all of it,
// Save replaces all of it.
type Store interface {
	Load() (*models.State, error)
	Save(state *models.State) error
	Close() error
}

// Open returns the backend named by driver ("json" or "sqlite").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "json":
		return NewJSONFile(path)
	case "sqlite":
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// normalize replaces nil sequences so they encode as [] rather than null.
func normalize(s *models.State) *models.State {
	if s.Links == nil {
		s.Links = []models.Link{}
	}
	for i := range s.Links {
		if s.Links[i].Clicks == nil {
			s.Links[i].Clicks = []models.ClickEvent{}
		}
		if s.Links[i].LocationEntries == nil {
			s.Links[i].LocationEntries = []models.LocationEntry{}
		}
	}
	return s
}
