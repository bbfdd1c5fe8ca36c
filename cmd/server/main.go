package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/analytics"
	"github.com/scmmishra/geolink/internal/cache"
	"github.com/scmmishra/geolink/internal/config"
	"github.com/scmmishra/geolink/internal/geo"
	"github.com/scmmishra/geolink/internal/handlers"
	"github.com/scmmishra/geolink/internal/logger"
	"github.com/scmmishra/geolink/internal/registry"
	"github.com/scmmishra/geolink/internal/store"
	"github.com/scmmishra/geolink/internal/tracking"
	"github.com/scmmishra/geolink/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	st, err := store.Open(cfg.StoreDriver, cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store")
	}
	defer st.Close()

	reg := registry.New(st)
	if err := reg.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("load links")
	}
	log.Info().Int("links", reg.Len()).Str("driver", cfg.StoreDriver).Msg("store loaded")

	geoReader, err := geo.Open(cfg.GeoIPPath)
	if err != nil {
		log.Warn().Err(err).Msg("geo lookups disabled")
		geoReader, _ = geo.Open("")
	}
	defer geoReader.Close()
	log.Info().Str("database", geoReader.Describe()).Msg("geo lookups")

	geoCache, err := cache.New(geoReader, cfg.GeoCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("geo cache")
	}

	api := &handlers.API{
		Links: &handlers.LinkHandler{Registry: reg, BaseURL: cfg.BaseURL},
		Redirect: &handlers.RedirectHandler{Recorder: &tracking.ClickRecorder{
			Registry: reg,
			Enricher: &analytics.Enricher{Geo: geoCache},
		}},
		Track: &handlers.TrackHandler{Correlator: &tracking.LocationCorrelator{Registry: reg}},
	}

	capture, err := web.NewCapturePage()
	if err != nil {
		log.Fatal().Err(err).Msg("capture page")
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handlers.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	api.RegisterRoutes(r)
	capture.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("base_url", cfg.BaseURL).Msg("geolink listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("goodbye")
}
