package analytics

import (
	"github.com/scmmishra/geolink/internal/geo"
	"github.com/scmmishra/geolink/internal/models"
)

// GeoLookup resolves an IP address to coarse location data.
type GeoLookup interface {
	Lookup(ip string) (geo.Result, bool)
}

// Enricher turns the raw facts of a redirect request into a click event.
type Enricher struct {
	Geo GeoLookup
}

// Enrich builds a click event for the request. The timestamp is left zero
// for the caller to stamp.
func (e *Enricher) Enrich(ip, userAgent, referrer string) models.ClickEvent {
	agent := ParseAgent(userAgent)

	click := models.ClickEvent{
		IPAddress:  ip,
		Country:    models.Unknown,
		Region:     models.Unknown,
		City:       models.Unknown,
		DeviceType: DeviceType(agent.Device),
		Browser:    agent.Browser,
		OS:         agent.OS,
		Referrer:   referrer,
	}
	if click.Referrer == "" {
		click.Referrer = models.Direct
	}

	if e.Geo == nil {
		return click
	}
	res, ok := e.Geo.Lookup(ip)
	if !ok {
		return click
	}
	click.Country = orUnknown(res.Country)
	click.Region = orUnknown(res.Region)
	click.City = orUnknown(res.City)
	if res.Latitude != 0 || res.Longitude != 0 {
		lat, lng := res.Latitude, res.Longitude
		click.Latitude = &lat
		click.Longitude = &lng
	}
	return click
}

func orUnknown(s string) string {
	if s == "" {
		return models.Unknown
	}
	return s
}
