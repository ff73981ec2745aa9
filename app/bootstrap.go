package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"hr-onboarding/internal/auth"
	"hr-onboarding/internal/db"
	"hr-onboarding/internal/maintenance"
	"hr-onboarding/internal/observability"
	"hr-onboarding/internal/session"
	"hr-onboarding/internal/web"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// slots is the storage side of the chosen slot driver.
type slots struct {
	driver   string
	provider session.Provider
	cleaner  maintenance.SlotCleaner
	ping     func(context.Context) error
	close    func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openSlots(ctx, options)
	if err != nil {
		return nil, err
	}
	logger.Info("session_slots_ready", map[string]any{"driver": store.driver})

	handler := web.NewHandler(store.provider, logger)
	loginLimiter := auth.NewLoginRateLimiter(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 20),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)
	cleanupHandler := maintenance.NewCleanupHandler(
		store.cleaner,
		logger,
		os.Getenv("CRON_SECRET"),
		envHoursOrDefault("SLOT_RETENTION_HOURS", 24),
		envIntOrDefault("SLOT_CLEANUP_BATCH_SIZE", 500),
	)

	mux := http.NewServeMux()
	handler.Routes(mux)
	mux.Handle("POST /api/login", loginLimiter.Middleware(handler.LoginHandler()))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(store))

	root := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: root,
		Close: func() error {
			observability.FlushSentry()
			return store.close()
		},
	}, nil
}

func openSlots(ctx context.Context, options Options) (*slots, error) {
	driver := strings.ToLower(envOrDefault("SLOT_DRIVER", session.DriverCookie))
	key := envOrDefault("SESSION_SLOT_KEY", session.DefaultKey)
	secure := EnvBoolOrDefault("COOKIE_SECURE", envOrDefault("APP_ENV", "development") == "production")

	switch driver {
	case session.DriverCookie:
		return &slots{
			driver:   driver,
			provider: session.NewCookieProvider(key, secure),
			close:    func() error { return nil },
		}, nil

	case session.DriverMemory:
		backend := session.NewMemoryBackend()
		return &slots{
			driver:   driver,
			provider: session.NewServerProvider(backend, key, secure, session.TTL),
			cleaner:  backend,
			close:    backend.Close,
		}, nil

	case session.DriverRedis:
		addr, err := mustEnv("REDIS_ADDR")
		if err != nil {
			return nil, err
		}
		backend, err := session.NewRedisBackend(ctx, session.RedisConfig{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envIntOrDefault("REDIS_DB", 0),
		})
		if err != nil {
			return nil, fmt.Errorf("open redis slots: %w", err)
		}
		return &slots{
			driver:   driver,
			provider: session.NewServerProvider(backend, key, secure, session.TTL),
			ping:     backend.Ping,
			close:    backend.Close,
		}, nil

	case session.DriverPostgres:
		database, err := openDatabase(ctx, options)
		if err != nil {
			return nil, err
		}
		backend := session.NewPostgresBackend(database)
		return &slots{
			driver:   driver,
			provider: session.NewServerProvider(backend, key, secure, session.TTL),
			cleaner:  backend,
			ping:     backend.Ping,
			close:    backend.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown SLOT_DRIVER %q", driver)
	}
}

func openDatabase(ctx context.Context, options Options) (*sql.DB, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if _, err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return database, nil
}

func healthHandler(store *slots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{
			"status":      "ok",
			"slot_driver": store.driver,
			"time":        time.Now().UTC().Format(time.RFC3339),
		}
		if store.ping != nil {
			if err := store.ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
