package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/linhaiwebs/sync/internal/http/handlers"
	httpapi "github.com/linhaiwebs/sync/internal/http/httpapi"
	"github.com/linhaiwebs/sync/internal/i18n"
	"github.com/linhaiwebs/sync/internal/infra"
	"github.com/linhaiwebs/sync/internal/infra/credentials"
	"github.com/linhaiwebs/sync/internal/infra/geoip"
	"github.com/linhaiwebs/sync/internal/lipsync"
	"github.com/linhaiwebs/sync/internal/providers/syncso"
	"github.com/linhaiwebs/sync/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tokens may live in Postgres instead of the environment.
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if pool != nil {
		defer pool.Close()
		store := credentials.NewStore(infra.NewSQLRunner(pool, logger))
		loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := store.FillConfig(loadCtx, cfg); err != nil {
			logger.Warn().Err(err).Msg("failed to load stored tokens")
		}
		cancel()
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	catalog, err := i18n.Default()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load locales")
	}
	if !catalog.SetFallback(cfg.DefaultLocale) {
		logger.Warn().Str("locale", cfg.DefaultLocale).Msg("unknown DEFAULT_LOCALE, keeping table default")
	}

	client, err := syncso.NewClient(syncso.Options{
		APIKey:         cfg.SyncAPIKey,
		BaseURL:        cfg.SyncBaseURL,
		Models:         cfg.SyncModels,
		Logger:         &logger,
		RequestTimeout: cfg.SyncRequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build sync client")
	}
	if !client.HasCredentials() {
		logger.Warn().Msg("SYNC_API_KEY is not set; every job call will fail")
	}

	uploader, err := storage.NewUploader(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build uploader")
	}
	if cfg.UploadMode == infra.UploadModeStub {
		logger.Warn().Msg("UPLOAD_MODE=stub: generated media URLs are placeholders the API cannot fetch")
	}

	service := lipsync.NewService(client, uploader, cfg.VoiceProvider, &logger)
	app, err := handlers.NewApp(service, catalog, &logger, cfg.DisplayLocation(), cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build handlers")
	}

	var mediaRoot string
	if local, ok := uploader.(*storage.LocalUploader); ok {
		mediaRoot = local.Store().BasePath()
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             &logger,
		Catalog:            catalog,
		CountryLookup:      geo.Lookup(),
		RateLimitPerMinute: cfg.RateLimitPerMin,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MediaRoot:          mediaRoot,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("upload_mode", uploader.Mode()).
			Strs("models", client.Models()).
			Msg("dashboard listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
