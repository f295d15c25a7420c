package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment   string
	ServerPort    string
	LogLevel      string
	BaseURL       string
	CORSOrigin    string
	DBDriver      string
	DBDSN         string
	SessionSecret string
	JWTSecret     string
	TokenTTL      time.Duration
	ReminderCron  string
	OTLPEndpoint  string

	RateLimitRPS   float64
	RateLimitBurst int

	SMTP  SMTPConfig
	Admin AdminSeed
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Enabled reports whether reminders go out over SMTP rather than to the log.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

// AdminSeed is the first admin created on an empty users table.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:         os.Getenv("DB_DSN"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ReminderCron:  getEnv("REMINDER_CRON", "0 21 * * *"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: getEnv("SMTP_PORT", "587"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: getEnv("MAIL_FROM", "no-reply@project-tracker.local"),
		},
		Admin: AdminSeed{
			Email:    getEnv("ADMIN_EMAIL", "admin@gmail.com"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Name:     getEnv("ADMIN_NAME", "Admin"),
		},
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, errors.New("DB_DSN is not set")
		}
	case "sqlite":
		if cfg.DBDSN == "" {
			cfg.DBDSN = "project-tracker.db"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
