// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON file, a
// .env file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// LogLevel is the minimum zap level that is written.
	LogLevel string `json:"log_level"`

	// Redis holds sessions and receives alert publications.
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// SMTP settings for alert email. Email is disabled when SMTPHost is empty.
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	AlertFrom    string `json:"alert_from"`
	AlertTo      string `json:"alert_to"`

	// AlertChannel is the Redis pub/sub channel alerts are published on.
	// Publishing is disabled when empty.
	AlertChannel string `json:"alert_channel"`

	// Pipeline sizing.
	QueueSize      int `json:"queue_size"`
	AlertQueueSize int `json:"alert_queue_size"`
	Workers        int `json:"workers"`
	AlertWorkers   int `json:"alert_workers"`

	// CookieSecure marks the session cookie Secure (HTTPS only).
	CookieSecure bool `json:"cookie_secure"`

	// AllowedOrigins lists the dashboard origins allowed by CORS.
	AllowedOrigins []string `json:"allowed_origins"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Default returns the options used when nothing overrides them.
func Default() *Options {
	return &Options{
		Port:           ":3000",
		Config:         "config.json",
		LogLevel:       "info",
		RedisAddr:      "localhost:6379",
		SMTPPort:       587,
		AlertChannel:   "bikeguard:alerts",
		QueueSize:      1024,
		AlertQueueSize: 128,
		Workers:        4,
		AlertWorkers:   2,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:5500",
			"http://localhost:5500",
		},
	}
}

// options holds the current configuration values.
var options = Default()

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.RedisAddr, "r", options.RedisAddr, "redis address")
	flag.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	flag.StringVar(&options.Config, "config", options.Config, "path to config file")
	flag.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
}

// Parse parses the command-line flags, the optional config file and
// environment variables (after loading .env, if present) and returns the
// resulting Options. Later sources override earlier ones.
func Parse() *Options {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if err := loadFile(options.Config, options); err != nil {
		log.Fatalf("%v", err)
	}

	applyEnv(options)
	normalize(options)

	return options
}

// loadFile overlays o with the JSON file at path. A missing file is not an error.
func loadFile(path string, o *Options) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(o *Options) {
	o.Port = getEnv("SERVER_ADDRESS", o.Port)
	o.DatabaseDSN = getEnv("DATABASE_DSN", o.DatabaseDSN)
	o.LogLevel = getEnv("LOG_LEVEL", o.LogLevel)

	o.RedisAddr = getEnv("REDIS_ADDR", o.RedisAddr)
	o.RedisPassword = getEnv("REDIS_PASSWORD", o.RedisPassword)
	o.RedisDB = getEnvInt("REDIS_DB", o.RedisDB)

	o.SMTPHost = getEnv("SMTP_HOST", o.SMTPHost)
	o.SMTPPort = getEnvInt("SMTP_PORT", o.SMTPPort)
	o.SMTPUser = getEnv("SMTP_USER", o.SMTPUser)
	o.SMTPPassword = getEnv("SMTP_PASSWORD", o.SMTPPassword)
	o.AlertFrom = getEnv("ALERT_FROM", o.AlertFrom)
	o.AlertTo = getEnv("ALERT_TO", o.AlertTo)
	o.AlertChannel = getEnv("ALERT_CHANNEL", o.AlertChannel)

	o.QueueSize = getEnvInt("QUEUE_SIZE", o.QueueSize)
	o.AlertQueueSize = getEnvInt("ALERT_QUEUE_SIZE", o.AlertQueueSize)
	o.Workers = getEnvInt("WORKERS", o.Workers)
	o.AlertWorkers = getEnvInt("ALERT_WORKERS", o.AlertWorkers)

	o.CookieSecure = getEnvBool("COOKIE_SECURE", o.CookieSecure)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		o.AllowedOrigins = splitList(v)
	}

	o.TLSCert = getEnv("TLS_CERT", o.TLSCert)
	o.TLSKey = getEnv("TLS_KEY", o.TLSKey)
}

// normalize clamps values that would otherwise break startup.
func normalize(o *Options) {
	o.QueueSize = max(o.QueueSize, 0)
	o.AlertQueueSize = max(o.AlertQueueSize, 0)
	o.Workers = max(o.Workers, 1)
	o.AlertWorkers = max(o.AlertWorkers, 1)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
