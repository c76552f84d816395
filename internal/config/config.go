package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth strategies understood by the token layer.
const (
	AuthStrategyJWT  = "jwt"
	AuthStrategyHMAC = "hmac"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	JWTSecret           string
	AuthStrategy        string
	TokenTTL            time.Duration
	ShutdownTimeout     time.Duration
	OverduePollInterval time.Duration
	OverdueBatch        int
	WorkerPoolSize      int
	ReconcileSchedule   string
	HubSendBuffer       int
	WSAllowedOrigins    []string
	KafkaBrokers        []string
	KafkaTopic          string
	OTLPEndpoint        string
	LogLevel            string
}

const (
	defaultRunAddress          = ":8080"
	defaultJWTSecret           = "change-me-in-production"
	defaultAuthStrategy        = AuthStrategyJWT
	defaultTokenTTL            = 24 * time.Hour
	defaultShutdownTimeout     = 10 * time.Second
	defaultOverduePollInterval = time.Minute
	defaultOverdueBatch        = 32
	defaultWorkerPoolSize      = 4
	defaultReconcileSchedule   = "@every 10m"
	defaultHubSendBuffer       = 64
	defaultKafkaTopic          = "fooddispatch.events"
	defaultLogLevel            = "info"
	defaultEnvFile             = ".env"
)

// Load parses configuration from flags, environment variables and an optional .env file.
// Real environment variables take precedence over values from the file.
func Load() (*Config, error) {
	envFile := defaultEnvFile
	if v, ok := os.LookupEnv("ENV_FILE"); ok && v != "" {
		envFile = v
	}

	fileEnv, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	return load(os.Args[1:], chainLookup(os.LookupEnv, mapLookup(fileEnv)))
}

type envLookup func(string) (string, bool)

func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

func mapLookup(values map[string]string) envLookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func chainLookup(lookups ...envLookup) envLookup {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		JWTSecret:           getString(lookup, "JWT_SECRET", defaultJWTSecret),
		AuthStrategy:        getString(lookup, "AUTH_STRATEGY", defaultAuthStrategy),
		TokenTTL:            getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		OverduePollInterval: getDuration(lookup, "OVERDUE_POLL_INTERVAL", defaultOverduePollInterval),
		OverdueBatch:        getInt(lookup, "OVERDUE_BATCH", defaultOverdueBatch),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ReconcileSchedule:   getString(lookup, "RECONCILE_SCHEDULE", defaultReconcileSchedule),
		HubSendBuffer:       getInt(lookup, "HUB_SEND_BUFFER", defaultHubSendBuffer),
		KafkaTopic:          getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		OTLPEndpoint:        getString(lookup, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogLevel:            getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("fooddispatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		tokenTTLStr        = cfg.TokenTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		overdueIntervalStr = cfg.OverduePollInterval.String()
		kafkaBrokersStr    = getString(lookup, "KAFKA_BROKERS", "")
		wsOriginsStr       = getString(lookup, "WS_ALLOWED_ORIGINS", "")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.AuthStrategy, "auth-strategy", cfg.AuthStrategy, "Token strategy: jwt or hmac")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Auth token lifetime")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&overdueIntervalStr, "overdue-interval", overdueIntervalStr, "Interval between overdue order scans")
	fs.IntVar(&cfg.OverdueBatch, "overdue-batch", cfg.OverdueBatch, "Maximum overdue orders per scan")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent notification workers")
	fs.StringVar(&cfg.ReconcileSchedule, "reconcile-schedule", cfg.ReconcileSchedule, "Cron schedule of the capacity reconciler")
	fs.IntVar(&cfg.HubSendBuffer, "hub-buffer", cfg.HubSendBuffer, "Outgoing message buffer per websocket client")
	fs.StringVar(&wsOriginsStr, "ws-origins", wsOriginsStr, "Comma separated extra origins allowed to open /ws")
	fs.StringVar(&kafkaBrokersStr, "kafka-brokers", kafkaBrokersStr, "Comma separated Kafka seed brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for mirrored events")
	fs.StringVar(&cfg.OTLPEndpoint, "otel-endpoint", cfg.OTLPEndpoint, "OTLP/HTTP trace collector endpoint")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.OverduePollInterval, err = time.ParseDuration(overdueIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid overdue interval: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.KafkaBrokers = splitList(kafkaBrokersStr)
	cfg.WSAllowedOrigins = splitList(wsOriginsStr)
	cfg.AuthStrategy = strings.ToLower(strings.TrimSpace(cfg.AuthStrategy))

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.OverduePollInterval <= 0 {
		cfg.OverduePollInterval = defaultOverduePollInterval
	}

	if cfg.OverdueBatch <= 0 {
		cfg.OverdueBatch = defaultOverdueBatch
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.HubSendBuffer <= 0 {
		cfg.HubSendBuffer = defaultHubSendBuffer
	}

	if strings.TrimSpace(cfg.ReconcileSchedule) == "" {
		cfg.ReconcileSchedule = defaultReconcileSchedule
	}

	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = defaultKafkaTopic
	}

	switch cfg.AuthStrategy {
	case AuthStrategyJWT, AuthStrategyHMAC:
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", cfg.AuthStrategy)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
