// Package main initializes and starts the LureLab account-security server,
// setting up configuration, logging, database connections, repositories,
// services, and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/obelenko/lurelab/internal/config"
	"github.com/obelenko/lurelab/internal/db"
	"github.com/obelenko/lurelab/internal/lockout"
	"github.com/obelenko/lurelab/internal/logger"
	"github.com/obelenko/lurelab/internal/mail"
	"github.com/obelenko/lurelab/internal/repository"
	"github.com/obelenko/lurelab/internal/server/handler/http"
	"github.com/obelenko/lurelab/internal/service"
	"github.com/obelenko/lurelab/internal/token"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
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

	if options.TokenSecret == "" {
		zapLogger.Fatal("token signing secret is required")
	}

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize repositories for users and reset tokens.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	resetRepo := repository.NewPostgresResetTokenRepository(postgresDB)

	// Purge redeemed and stale reset tokens in the background.
	db.StartResetTokenCleaner(context.Background(), resetRepo,
		time.Hour,    // interval
		24*time.Hour, // retention after expiry
		zapLogger,
	)

	// Token signing for reset links and sessions.
	tokens := token.NewManager([]byte(options.TokenSecret))

	// Lockout thresholds from configuration.
	tracker := lockout.New(lockout.Config{
		Threshold:    options.LockoutThreshold,
		LockDuration: time.Duration(options.LockoutMinutes) * time.Minute,
		ResetWindow:  time.Duration(options.ResetWindowHours) * time.Hour,
	})

	// Reset links go through SMTP when a relay is configured, otherwise to
	// the log.
	var mailer service.Mailer
	if options.SMTPAddr != "" {
		mailer = &mail.SMTPDispatcher{Addr: options.SMTPAddr, From: options.SMTPFrom}
	} else {
		zapLogger.Warn("no SMTP relay configured, reset links will be logged")
		mailer = &mail.LogDispatcher{Logger: zapLogger}
	}

	// Initialize the authentication gate.
	authService, err := service.NewAuthService(userRepo, resetRepo, mailer, tracker, tokens, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init auth service", zap.Error(err))
	}

	// Create HTTP handlers and build the router.
	authHandler := http.NewAuthHandler(authService, options.BaseURL, zapLogger)
	router := http.NewRouter(authHandler, tokens, zapLogger, options.RateLimit)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
