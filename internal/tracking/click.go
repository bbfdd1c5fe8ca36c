package tracking

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/analytics"
	"github.com/scmmishra/geolink/internal/registry"
)

// DefaultCapturePath is the page that asks the browser for its location
// before forwarding to the destination.
const DefaultCapturePath = "/client.html"

// ClickRecorder records a click for every redirect.
type ClickRecorder struct {
	Registry    *registry.Registry
	Enricher    *analytics.Enricher
	CapturePath string
	Now         func() time.Time
}

// RecordClick appends an enriched click to the link and returns where the
// client goes next: the location-capture page, not the destination itself.
func (cr *ClickRecorder) RecordClick(trackingID, ip, userAgent, referrer string) (string, error) {
	if _, ok := cr.Registry.Find(trackingID); !ok {
		return "", fmt.Errorf("%w: %s", registry.ErrNotFound, trackingID)
	}

	click := cr.Enricher.Enrich(ip, userAgent, referrer)
	click.Timestamp = now(cr.Now)

	if _, err := cr.Registry.AppendClick(trackingID, click); err != nil {
		return "", err
	}

	log.Info().
		Str("tracking_id", trackingID).
		Str("country", click.Country).
		Str("device", click.DeviceType).
		Msg("click recorded")

	return captureTarget(cr.CapturePath, trackingID), nil
}

func captureTarget(path, trackingID string) string {
	if path == "" {
		path = DefaultCapturePath
	}
	return path + "?id=" + url.QueryEscape(trackingID)
}

func now(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now().UTC()
}
