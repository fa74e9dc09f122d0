// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file, a .env
// file, and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string

	// TokenSecret signs reset and session tokens. Required.
	TokenSecret string

	// BaseURL is the public origin used when building reset links.
	BaseURL string

	// LogLevel selects the zap log level.
	LogLevel string

	// LockoutThreshold is the failed-attempt count that locks an account.
	LockoutThreshold int

	// LockoutMinutes is how long a lock lasts.
	LockoutMinutes int

	// ResetWindowHours is how long a stale failure counter survives.
	ResetWindowHours int

	// RateLimit is the per-IP request rate for the auth endpoints.
	RateLimit float64

	// SMTPAddr is the mail relay in host:port form. Empty disables mail
	// delivery and logs reset links instead.
	SMTPAddr string

	// SMTPFrom is the sender address for reset mail.
	SMTPFrom string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.StringVar(&options.TokenSecret, "secret", "", "token signing secret")
	flag.StringVar(&options.BaseURL, "base-url", "http://localhost:8080", "public base URL for reset links")
	flag.StringVar(&options.LogLevel, "log-level", "info", "zap log level")
	flag.IntVar(&options.LockoutThreshold, "lockout-threshold", 10, "failed attempts before lockout")
	flag.IntVar(&options.LockoutMinutes, "lockout-minutes", 30, "lockout duration in minutes")
	flag.IntVar(&options.ResetWindowHours, "reset-window-hours", 24, "failure counter decay window in hours")
	flag.Float64Var(&options.RateLimit, "rate-limit", 5, "per-IP requests per second on auth endpoints")
	flag.StringVar(&options.SMTPAddr, "smtp-addr", "", "SMTP relay host:port (empty logs reset links)")
	flag.StringVar(&options.SMTPFrom, "smtp-from", "no-reply@lurelab.local", "sender address for reset mail")
}

// Parse parses the command-line flags, the JSON config file, the .env file,
// and environment variables to set configuration values. It returns a
// pointer to the Options struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// A .env file is optional; ignore it when absent.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("skipping .env: %v", err)
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	// Environment variables win over flags and the config file.
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("TOKEN_SECRET"); secret != "" {
		options.TokenSecret = secret
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	if addr := os.Getenv("SMTP_ADDR"); addr != "" {
		options.SMTPAddr = addr
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		options.SMTPFrom = from
	}

	return options
}
