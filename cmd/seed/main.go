package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/analytics"
	"github.com/scmmishra/geolink/internal/cache"
	"github.com/scmmishra/geolink/internal/config"
	"github.com/scmmishra/geolink/internal/geo"
	"github.com/scmmishra/geolink/internal/logger"
	"github.com/scmmishra/geolink/internal/models"
	"github.com/scmmishra/geolink/internal/registry"
	"github.com/scmmishra/geolink/internal/store"
	"github.com/scmmishra/geolink/internal/tracking"
)

type seedLink struct {
	dest string
	// weight controls relative click volume (higher = more clicks)
	weight float64
}

var links = []seedLink{
	{"https://go.dev/doc/effective_go", 5.0},
	{"https://go.dev/blog/pipelines", 4.0},
	{"https://pkg.go.dev/net/http", 4.5},
	{"https://github.com/go-chi/chi", 3.5},
	{"https://www.openstreetmap.org/#map=12/52.5200/13.4050", 3.0},
	{"https://developer.mozilla.org/en-US/docs/Web/API/Geolocation_API", 4.2},
	{"https://dev.maxmind.com/geoip/geolite2-free-geolocation-data", 2.8},
	{"https://sqlite.org/wal.html", 2.5},
	{"https://en.wikipedia.org/wiki/URL_shortening", 1.5},
	{"https://news.ycombinator.com/", 1.2},
}

type weighted[T any] struct {
	v      T
	weight float64
}

var referrers = []weighted[string]{
	{"https://www.google.com/", 30},
	{"", 20}, // direct traffic
	{"https://github.com/", 15},
	{"https://twitter.com/", 8},
	{"https://www.reddit.com/", 7},
	{"https://news.ycombinator.com/", 5},
	{"https://www.linkedin.com/", 4},
	{"https://t.co/", 1},
}

var userAgents = []weighted[string]{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", 40},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15", 15},
	{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", 10},
	{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1", 15},
	{"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1", 4},
	{"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", 12},
	{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", 3},
	{"Slackbot-LinkExpanding 1.0 (+https://api.slack.com/robots)", 1},
}

// cities are centres for synthetic browser-reported positions.
var cities = []weighted[[2]float64]{
	{[2]float64{40.7128, -74.0060}, 25}, // New York
	{[2]float64{19.0760, 72.8777}, 20},  // Mumbai
	{[2]float64{52.5200, 13.4050}, 8},   // Berlin
	{[2]float64{51.5074, -0.1278}, 7},   // London
	{[2]float64{-23.5505, -46.6333}, 6}, // São Paulo
	{[2]float64{35.6762, 139.6503}, 3},  // Tokyo
	{[2]float64{-33.8688, 151.2093}, 3}, // Sydney
}

func pick[T any](items []weighted[T], rng *rand.Rand) T {
	var total float64
	for _, item := range items {
		total += item.weight
	}
	r := rng.Float64() * total
	for _, item := range items {
		r -= item.weight
		if r <= 0 {
			return item.v
		}
	}
	return items[len(items)-1].v
}

// clock is a settable time source shared by the registry and recorders so
// generated events can be backdated.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	// keep per-event logs out of the way
	logger.Init("warn", cfg.LogFormat)

	st, err := store.Open(cfg.StoreDriver, cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	reg := registry.New(st)
	if err := reg.Load(); err != nil {
		log.Fatal().Err(err).Msg("load store")
	}

	geoReader, err := geo.Open(cfg.GeoIPPath)
	if err != nil {
		log.Warn().Err(err).Msg("geo lookups disabled")
		geoReader, _ = geo.Open("")
	}
	defer geoReader.Close()

	geoCache, err := cache.New(geoReader, cfg.GeoCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("geo cache")
	}

	clk := &clock{}
	reg.Now = clk.Now
	recorder := &tracking.ClickRecorder{
		Registry: reg,
		Enricher: &analytics.Enricher{Geo: geoCache},
		Now:      clk.Now,
	}
	correlator := &tracking.LocationCorrelator{Registry: reg, Now: clk.Now}

	rng := rand.New(rand.NewSource(42)) // deterministic seed
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)

	fmt.Println("Seeding links...")

	created := make([]models.Link, 0, len(links))
	for i, sl := range links {
		clk.t = start.Add(time.Duration(i) * 12 * time.Hour)
		link, err := reg.Create(sl.dest)
		if err != nil {
			log.Fatal().Err(err).Str("url", sl.dest).Msg("create link")
		}
		created = append(created, link)
		fmt.Printf("  %s → %s\n", link.TrackingURL(cfg.BaseURL), sl.dest)
	}

	fmt.Println("\nGenerating clicks...")

	totalClicks, totalLocations := 0, 0
	for i, sl := range links {
		link := created[i]
		n := 0

		for day := link.CreatedAt; day.Before(now); day = day.Add(24 * time.Hour) {
			clicksThisDay := int(sl.weight * (0.6 + rng.Float64()*0.8))
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				clicksThisDay /= 2
			}

			for range clicksThisDay {
				hour := min(max(rng.NormFloat64()*4+14, 0), 23) // center around 2pm UTC
				clk.t = time.Date(day.Year(), day.Month(), day.Day(),
					int(hour), rng.Intn(60), rng.Intn(60), 0, time.UTC)
				if clk.t.After(now) {
					continue
				}

				ip := fmt.Sprintf("%d.%d.%d.%d", rng.Intn(223)+1, rng.Intn(256), rng.Intn(256), rng.Intn(256))
				if _, err := recorder.RecordClick(link.TrackingID, ip, pick(userAgents, rng), pick(referrers, rng)); err != nil {
					log.Fatal().Err(err).Str("tracking_id", link.TrackingID).Msg("record click")
				}
				n++

				// roughly a third of visitors grant geolocation
				if rng.Float64() < 0.35 {
					c := pick(cities, rng)
					acc := 10 + rng.Float64()*90
					clk.t = clk.t.Add(time.Duration(2+rng.Intn(5)) * time.Second)
					loc := &models.Location{
						Lat:      c[0] + rng.NormFloat64()*0.05,
						Lng:      c[1] + rng.NormFloat64()*0.05,
						Accuracy: &acc,
						Source:   "browser",
					}
					if err := correlator.RecordLocation(link.TrackingID, loc); err != nil {
						log.Fatal().Err(err).Str("tracking_id", link.TrackingID).Msg("record location")
					}
					totalLocations++
				}
			}
		}

		totalClicks += n
		fmt.Printf("  %s  %d clicks\n", link.TrackingID, n)
	}

	fmt.Printf("\nDone! Created %d links with %d clicks and %d location samples.\n", len(links), totalClicks, totalLocations)
	fmt.Printf("Store: %s (%s)\n", cfg.DataPath, cfg.StoreDriver)
}
