// Package main initializes and starts the BikeGuard server, setting up
// configuration, logging, database and Redis connections, repositories,
// services, the ingestion pipeline and the HTTP handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/BikeGuard/internal/config"
	"github.com/atinyakov/BikeGuard/internal/db"
	"github.com/atinyakov/BikeGuard/internal/logger"
	"github.com/atinyakov/BikeGuard/internal/notify"
	"github.com/atinyakov/BikeGuard/internal/pipeline"
	"github.com/atinyakov/BikeGuard/internal/repository"
	"github.com/atinyakov/BikeGuard/internal/server/handler/http"
	"github.com/atinyakov/BikeGuard/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()
	db.StartHealthMonitor(ctx, postgresDB, 30*time.Second, zapLogger)

	// Initialize Redis for sessions and alert publication.
	redisClient, err := db.InitRedis(ctx, options.RedisAddr, options.RedisPassword, options.RedisDB)
	if err != nil {
		zapLogger.Fatal("cannot init redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize repositories.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	sessionRepo := repository.NewRedisSessionRepository(redisClient)
	settingsRepo := repository.NewPostgresSettingsRepository(postgresDB)
	readingRepo := repository.NewPostgresReadingRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, sessionRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	telemetryService := service.NewTelemetryService(readingRepo, zapLogger)

	// Create the settings row up front so the first device request does not pay for it.
	if st, err := settingsService.Get(ctx); err != nil {
		zapLogger.Warn("failed to load settings", zap.Error(err))
	} else {
		zapLogger.Info("settings loaded",
			zap.String("mode", string(st.Mode)),
			zap.Float64("threshold", st.Threshold),
		)
	}

	notifier, err := buildNotifier(options, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init notifier", zap.Error(err))
	}

	// Start the asynchronous evaluate, persist and notify pipeline.
	dispatcher := pipeline.NewDispatcher(options.QueueSize, options.AlertQueueSize, zapLogger)
	pipe := pipeline.New(dispatcher, telemetryService, notifier, options.Workers, options.AlertWorkers, zapLogger)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, SecureCookie: options.CookieSecure}
	settingsHandler := &http.SettingsHandler{SettingsService: settingsService}
	telemetryHandler := &http.TelemetryHandler{TelemetryService: telemetryService}
	ingestHandler := &http.IngestHandler{Settings: settingsService, Pipeline: dispatcher, Logger: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, settingsHandler, telemetryHandler, ingestHandler,
		authService, zapLogger, options.AllowedOrigins)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	// The pipeline outlives the server so that acknowledged readings are
	// still processed during shutdown.
	pipeCtx, stopPipe := context.WithCancel(context.Background())
	defer stopPipe()
	pipeDone := make(chan error, 1)
	go func() { pipeDone <- pipe.Run(pipeCtx) }()

	g.Go(func() error {
		useTLS := options.TLSCert != "" && options.TLSKey != ""
		zapLogger.Info("starting server", zap.String("addr", options.Port), zap.Bool("tls", useTLS))

		var err error
		if useTLS {
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
	}

	stopPipe()
	if err := <-pipeDone; err != nil {
		zapLogger.Error("pipeline stopped with error", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// buildNotifier combines every configured alert channel. With none
// configured, alerts are only logged.
func buildNotifier(options *config.Options, redisClient *redis.Client, log *zap.Logger) (notify.Notifier, error) {
	var notifiers notify.Multi

	if options.SMTPHost != "" {
		email, err := notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     options.SMTPHost,
			Port:     options.SMTPPort,
			Username: options.SMTPUser,
			Password: options.SMTPPassword,
			From:     options.AlertFrom,
			To:       options.AlertTo,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, email)
	}
	if options.AlertChannel != "" {
		notifiers = append(notifiers, notify.NewRedisNotifier(redisClient, options.AlertChannel))
	}

	if len(notifiers) == 0 {
		log.Warn("no alert channel configured, alerts will only be logged")
		return notify.LogNotifier{Log: log}, nil
	}
	return notifiers, nil
}
