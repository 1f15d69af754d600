package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medialist/internal/auth"
	"medialist/internal/config"
	"medialist/internal/consul"
	"medialist/internal/database"
	"medialist/internal/events"
	"medialist/internal/genres"
	"medialist/internal/logger"
	"medialist/internal/media"
	"medialist/internal/ratings"
	"medialist/internal/server"
	"medialist/internal/session"
	"medialist/internal/users"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	lgr := logger.New(cfg.LogLevel, cfg.LogFormat)
	logger.SetDefault(lgr)

	lgr.Info("Starting API",
		"port", cfg.Port,
		"host", cfg.ServiceHost,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		lgr.Error("Failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		lgr.Error("Failed to apply schema", "error", err.Error())
		os.Exit(1)
	}
	cancel()
	lgr.Info("Connected to database")

	userRepo := users.NewRepository(db)
	if cfg.BootstrapAdmin != "" {
		if err := userRepo.SetAdmin(context.Background(), cfg.BootstrapAdmin, true); err != nil {
			lgr.Warn("Failed to flag bootstrap admin", "username", cfg.BootstrapAdmin, "error", err.Error())
		} else {
			lgr.Info("Bootstrap admin flagged", "username", cfg.BootstrapAdmin)
		}
	}

	sessions := session.NewStore(session.WithTimeout(cfg.SessionTimeout))
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go sessions.RunJanitor(janitorCtx, cfg.SessionSweepInterval)
	lgr.Info("Session store ready",
		"timeout", sessions.Timeout().String(),
		"sweep_interval", cfg.SessionSweepInterval.String(),
	)

	// Kafka is optional; without it session events are dropped
	var publisher events.Publisher = events.NopPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.KafkaEnabled() {
		kafkaConfig, err := events.LoadConfig()
		if err != nil {
			lgr.Warn("Failed to load Kafka config, session events disabled", "error", err.Error())
		} else if kafkaPublisher, err = events.NewKafkaPublisher(kafkaConfig, lgr); err != nil {
			lgr.Warn("Failed to create Kafka producer, session events disabled", "error", err.Error())
		} else {
			publisher = kafkaPublisher
		}
	} else {
		lgr.Info("Kafka disabled, session events not published")
	}

	hasher := users.NewBcryptHasher(0)
	authService := auth.NewService(users.NewVerifier(userRepo, hasher), sessions, lgr)

	app := server.New(cfg.CORSAllowedOrigins, server.Deps{
		Resolver: authService,
		DB:       db,
		Sessions: sessions,
		Handlers: []server.RouteRegistrar{
			auth.NewHandler(authService, publisher, lgr),
			users.NewHandler(userRepo, hasher, sessions, lgr),
			genres.NewHandler(genres.NewRepository(db), lgr),
			media.NewHandler(media.NewRepository(db), lgr),
			ratings.NewHandler(ratings.NewRepository(db), lgr),
		},
		Logger: lgr,
	})
	srv := server.NewHTTPServer(cfg, app.RegisterRoutes())

	var registry *consul.Registry
	var registration *consul.Registration
	if cfg.ConsulAddr != "" {
		registry, err = consul.NewRegistry(cfg.ConsulAddr, cfg.ConsulToken, lgr)
		if err == nil {
			registration = consul.NewRegistration(cfg.ServiceHost, cfg.Port)
			err = registry.Register(registration)
		}
		if err != nil {
			lgr.Warn("Consul registration failed", "addr", cfg.ConsulAddr, "error", err.Error())
			registry = nil
		} else {
			lgr.Info("Registered with Consul", "service_id", registration.ID)
		}
	}

	go func() {
		lgr.Info("API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("Failed to start server", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lgr.Info("Shutting down API...")

	if registry != nil {
		if err := registry.Deregister(registration.ID); err != nil {
			lgr.Warn("Failed to deregister from Consul", "error", err.Error())
		} else {
			lgr.Info("Deregistered from Consul")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("Server forced to shutdown", "error", err.Error())
	}

	stopJanitor()
	if kafkaPublisher != nil {
		kafkaPublisher.Close()
	}
	if err := db.Close(); err != nil {
		lgr.Error("Failed to close database", "error", err.Error())
	}

	lgr.Info("API stopped")
}
