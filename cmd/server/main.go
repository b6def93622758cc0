package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/budgettrip/internal/api"
	"github.com/neexbeast/budgettrip/internal/cache"
	"github.com/neexbeast/budgettrip/internal/config"
	"github.com/neexbeast/budgettrip/internal/destination"
	"github.com/neexbeast/budgettrip/internal/llm"
	"github.com/neexbeast/budgettrip/internal/logger"
	"github.com/neexbeast/budgettrip/internal/pipeline"
	"github.com/neexbeast/budgettrip/internal/recommend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// resultStore is satisfied by cache.Memory and cache.Redis.
type resultStore interface {
	pipeline.Store
	Ping(ctx context.Context) error
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Result cache: Redis when configured, otherwise in-process.
	var store resultStore
	if cfg.Cache.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		store = cache.NewRedis(redisClient, cfg.Cache.TTL)
		log.Info("result cache ready", "backend", "redis", "ttl", cfg.Cache.TTL)
	} else {
		store = cache.NewMemory(cfg.Cache.TTL, cfg.Cache.MaxEntries)
		log.Info("result cache ready", "backend", "memory", "ttl", cfg.Cache.TTL, "max_entries", cfg.Cache.MaxEntries)
	}

	gen, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey(),
		Model:    cfg.LLM.Model(),
		BaseURL:  cfg.LLM.OpenAIBaseURL,
	})
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}
	if c, ok := gen.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	// Wire dependencies.
	up := cfg.Upstreams
	requester := recommend.NewRequester(gen, recommend.NewNormalizer(exchangeClient(up), log), log)
	resolver := destination.NewResolver(countriesClient(up), geoClient(up))
	assembler := destination.NewAssembler(resolver, weatherClient(up), requester, log)
	orchestrator := pipeline.New(store, requester, assembler, log, pipeline.WithTTL(cfg.Cache.TTL))

	handlers := api.NewHandlers(orchestrator, log)
	router := api.NewRouter(handlers, cfg.HTTP.AllowedOrigin, store, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.HTTP.Port, "llm_provider", cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

func weatherClient(up config.UpstreamsConfig) *destination.WeatherClient {
	if up.WeatherURL != "" {
		return destination.NewWeatherClientWithURL(up.WeatherURL, up.OpenWeatherAPIKey)
	}
	return destination.NewWeatherClient(up.OpenWeatherAPIKey)
}

func geoClient(up config.UpstreamsConfig) *destination.GeoClient {
	if up.GeocodeURL != "" {
		return destination.NewGeoClientWithURL(up.GeocodeURL, up.OpenWeatherAPIKey)
	}
	return destination.NewGeoClient(up.OpenWeatherAPIKey)
}

func countriesClient(up config.UpstreamsConfig) *destination.CountriesClient {
	if up.CountriesURL != "" {
		return destination.NewCountriesClientWithURL(up.CountriesURL)
	}
	return destination.NewCountriesClient()
}

func exchangeClient(up config.UpstreamsConfig) *destination.ExchangeClient {
	if up.ExchangeURL != "" {
		return destination.NewExchangeClientWithURL(up.ExchangeURL)
	}
	return destination.NewExchangeClient()
}
