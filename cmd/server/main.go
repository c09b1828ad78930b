package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	emailPkg "facultyhub/internal/adapters/email"
	web "facultyhub/internal/adapters/http"
	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/adapters/http/perf"
	"facultyhub/internal/adapters/metrics"
	"facultyhub/internal/adapters/records"
	"facultyhub/internal/adapters/records/airtable"
	"facultyhub/internal/adapters/records/memory"
	"facultyhub/internal/adapters/storage"
	auditStore "facultyhub/internal/adapters/storage/audit"
	messageStore "facultyhub/internal/adapters/storage/message"
	"facultyhub/internal/application/orchestrators"
	"facultyhub/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	if err := cfg.Validate(); err != nil {
		fatal("config_invalid", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, foreign keys and busy timeout for the local message and audit store
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		fatal("db_open_failed", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		fatal("db_unreachable", err)
	}
	if err := storage.MigrateDB(ctx, db); err != nil {
		fatal("db_migrate_failed", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	recorder := metrics.New()
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	stores := &web.Stores{
		Records:      recordBackend(cfg, recorder, collector),
		MessageStore: messageStore.NewSQLiteStore(timedDB),
		AuditStore:   auditStore.NewSQLiteStore(timedDB),
	}

	sessions := sessionStore(ctx, cfg)
	sender := emailSender(cfg)

	hash, err := adminPasswordHash(cfg)
	if err != nil {
		fatal("admin_password_hash_failed", err)
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		fatal("config_invalid", err)
	}

	stopDispatch := orchestrators.StartDispatchWorker(ctx, orchestrators.DeliverDeps{
		Records:     stores.Records,
		Store:       stores.MessageStore,
		EmailSender: sender,
		Metrics:     recorder,
		Now:         time.Now,
		FromAddress: cfg.ResendFrom,
		ReplyTo:     cfg.ReplyTo,
	}, cfg.DispatchInterval)
	defer stopDispatch()

	handler := web.NewMux(stores, web.Options{
		Sessions:          sessions,
		EmailSender:       sender,
		Metrics:           recorder,
		Perf:              collector,
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: hash,
		CSRFKey:           csrfKey,
		SecureCookies:     cfg.IsProduction(),
		FromAddress:       cfg.ResendFrom,
		ReplyTo:           cfg.ReplyTo,
		SlowRequestMs:     cfg.SlowRequestMs,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion(), "remote_records", cfg.UsesRemoteRecords())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fatal("server_failed", err)
		}
	case <-ctx.Done():
	}

	slog.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
}

// recordBackend picks the hosted backend when credentials are configured
// and the seeded in-memory one otherwise.
func recordBackend(cfg config.Config, recorder *metrics.Recorder, collector *perf.Collector) records.Client {
	if !cfg.UsesRemoteRecords() {
		slog.Warn("records_backend", "backend", "memory", "message", "set FACULTYHUB_AIRTABLE_TOKEN and FACULTYHUB_AIRTABLE_BASE for live records")
		return memory.NewSeeded()
	}
	slog.Info("records_backend", "backend", "airtable", "base", cfg.AirtableBase)
	return airtable.New(airtable.Options{
		APIURL:     cfg.AirtableURL,
		BaseID:     cfg.AirtableBase,
		Token:      cfg.AirtableToken,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Metrics:    recorder,
		Perf:       collector,
	})
}

// sessionStore uses Redis when an address is configured so logins survive
// restarts and are shared between instances.
func sessionStore(ctx context.Context, cfg config.Config) middleware.SessionStore {
	if cfg.RedisAddr == "" {
		return middleware.NewMemorySessionStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		fatal("redis_unreachable", err)
	}
	slog.Info("session_store", "backend", "redis", "addr", cfg.RedisAddr)
	return middleware.NewRedisSessionStore(client)
}

func emailSender(cfg config.Config) emailPkg.Sender {
	if cfg.ResendKey != "" {
		slog.Info("email_sender", "provider", "resend")
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom, cfg.ReplyTo)
	}
	if cfg.IsProduction() {
		slog.Warn("email_sender", "provider", "noop", "message", "FACULTYHUB_RESEND_KEY is not set; email delivery is disabled")
	} else {
		slog.Info("email_sender", "provider", "noop")
	}
	return emailPkg.NewNoopSender()
}

// adminPasswordHash prefers the configured bcrypt hash. A plain password is
// only accepted outside production and is hashed at startup.
func adminPasswordHash(cfg config.Config) ([]byte, error) {
	if cfg.AdminPasswordHash != "" {
		return []byte(cfg.AdminPasswordHash), nil
	}
	slog.Warn("admin_password_plain", "message", "hashing FACULTYHUB_ADMIN_PASSWORD at startup; set FACULTYHUB_ADMIN_PASSWORD_HASH instead")
	return bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(event string, err error) {
	slog.Error(event, "error", err)
	os.Exit(1)
}
