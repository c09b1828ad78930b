package web

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"facultyhub/internal/adapters/email"
	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/adapters/http/perf"
	"facultyhub/internal/adapters/metrics"
	"facultyhub/internal/adapters/records"
	auditStore "facultyhub/internal/adapters/storage/audit"
	messageStore "facultyhub/internal/adapters/storage/message"
)

// Stores holds all record and storage dependencies.
type Stores struct {
	Records      records.Client
	MessageStore messageStore.Store
	AuditStore   auditStore.Store
}

// Options carries runtime settings for the HTTP layer.
type Options struct {
	Sessions    middleware.SessionStore
	EmailSender email.Sender
	Metrics     *metrics.Recorder
	Perf        *perf.Collector

	AdminUser         string
	AdminPasswordHash []byte

	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string

	FromAddress   string
	ReplyTo       string
	SlowRequestMs int
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions middleware.SessionStore

// Global perf collector and metrics recorder (set by NewMux)
var perfCollector *perf.Collector
var metricsRecorder *metrics.Recorder

// Global email sender instance
var emailSender email.Sender

// settings is the Options NewMux was called with.
var settings Options

// RateLimitPerSecond controls the per-IP login rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// csrfKeyOrRandom returns key, or a per-process random key when none is
// configured. Config validation requires a key in production.
func csrfKeyOrRandom(key []byte) []byte {
	if len(key) == 32 {
		return key
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("csrf key: " + err.Error())
	}
	slog.Warn("csrf_random_key", "message", "forms will not survive a restart; set FACULTYHUB_CSRF_KEY")
	return key
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	settings = opts
	sessions = opts.Sessions
	if sessions == nil {
		sessions = middleware.NewMemorySessionStore()
	}
	perfCollector = opts.Perf
	if perfCollector == nil {
		perfCollector = perf.NewCollector(perf.DefaultRingSize)
	}
	metricsRecorder = opts.Metrics
	emailSender = opts.EmailSender
	if emailSender == nil {
		emailSender = email.NewNoopSender()
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Order of execution: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKeyOrRandom(opts.CSRFKey), opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter, "/login", "/admin/login"),
		middleware.Timing(perfCollector, metricsRecorder, opts.SlowRequestMs),
	)
}
