package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"booktable/internal/api"
	"booktable/internal/cache"
	"booktable/internal/config"
	"booktable/internal/events"
	"booktable/internal/geo"
	"booktable/internal/metrics"
	"booktable/internal/session"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("open cache")
	}

	sessions := session.NewStore(store)
	token := cfg.API.Token
	if token == "" {
		if saved, err := sessions.Token(ctx); err == nil {
			token = saved
		} else if !errors.Is(err, session.ErrNoSession) {
			logger.Warn().Err(err).Msg("load saved session")
		}
	}

	client, err := api.New(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.APITimeout(),
		RateLimit:     cfg.API.RateLimit,
		Burst:         cfg.API.Burst,
		Token:         token,
		Cache:         store,
		RestaurantTTL: cfg.RestaurantTTL(),
		Logger:        &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create api client")
	}

	metrics.Register()
	if addr := cfg.MetricsAddr(); addr != "" {
		go startMetricsServer(ctx, addr, &logger)
	}

	bus := events.NewEventBus()
	subscribeLogging(bus, &logger)

	locator := geo.StaticLocator{Latitude: cfg.Geo.Latitude, Longitude: cfg.Geo.Longitude}

	a := &app{
		cfg:       cfg,
		client:    client,
		sessions:  sessions,
		locations: geo.NewLocationCache(locator, store, cfg.LocationTTL(), &logger),
		bus:       bus,
		in:        os.Stdin,
		out:       os.Stdout,
		logger:    &logger,
	}

	code := a.run(ctx, os.Args[1:])
	stop()
	_ = closeStore()
	os.Exit(code)
}

// subscribeLogging writes every booking lifecycle event to the log.
func subscribeLogging(bus *events.EventBus, logger *zerolog.Logger) {
	l := logger.With().Str("component", "events").Logger()
	for _, t := range []string{
		events.TypeConflictDetected,
		events.TypeConflictResolved,
		events.TypeBookingCancelled,
		events.TypeBookingCreated,
		events.TypeSubmissionFailed,
	} {
		bus.Subscribe(t, func(ev events.Event) error {
			l.Debug().Str("event_id", ev.ID).Str("type", ev.Type).RawJSON("payload", ev.Payload).Msg("event")
			return nil
		})
	}
}

func startMetricsServer(ctx context.Context, addr string, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
