package tracking

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/models"
	"github.com/scmmishra/geolink/internal/registry"
)

// LocationCorrelator attaches client-reported locations to links. Entries
// are correlated with the link only, never with a particular click.
type LocationCorrelator struct {
	Registry *registry.Registry
	Now      func() time.Time
}

func (lc *LocationCorrelator) RecordLocation(trackingID string, loc *models.Location) error {
	if trackingID == "" || loc == nil {
		return fmt.Errorf("%w: id and location are required", registry.ErrValidation)
	}
	if err := validCoordinates(loc); err != nil {
		return err
	}

	entry := models.LocationEntry{Timestamp: now(lc.Now), Location: *loc}
	if _, err := lc.Registry.AppendLocation(trackingID, entry); err != nil {
		return err
	}

	log.Info().
		Str("tracking_id", trackingID).
		Float64("lat", loc.Lat).
		Float64("lng", loc.Lng).
		Msg("location recorded")
	return nil
}

func validCoordinates(loc *models.Location) error {
	if math.IsNaN(loc.Lat) || loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("%w: lat out of range", registry.ErrValidation)
	}
	if math.IsNaN(loc.Lng) || loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("%w: lng out of range", registry.ErrValidation)
	}
	if loc.Accuracy != nil && (math.IsNaN(*loc.Accuracy) || *loc.Accuracy < 0) {
		return fmt.Errorf("%w: accuracy must be non-negative", registry.ErrValidation)
	}
	return nil
}
