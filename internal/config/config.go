package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultAirtableURL is the API root of the hosted tabular backend.
const DefaultAirtableURL = "https://api.airtable.com/v0"

// Config holds runtime configuration read from the environment.
// Secrets have no defaults: an unset secret stays empty.
type Config struct {
	Env      string
	Addr     string
	DBPath   string
	LogLevel string

	AirtableURL   string
	AirtableToken string
	AirtableBase  string
	HTTPTimeout   time.Duration

	AdminUser         string
	AdminPasswordHash string
	AdminPassword     string

	CSRFKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ResendKey  string
	ResendFrom string
	ReplyTo    string

	DispatchInterval time.Duration
	SlowRequestMs    int
	SlowQueryMs      int
}

// Load reads configuration from the process environment.
// A .env file in the working directory, when present, is loaded first;
// variables already set in the environment win.
// PRE: none
// POST: Returns a Config with defaults applied to non-secret keys
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:      getenv("FACULTYHUB_ENV", EnvDevelopment),
		Addr:     getenv("FACULTYHUB_ADDR", ":8080"),
		DBPath:   getenv("FACULTYHUB_DB_PATH", "facultyhub.db"),
		LogLevel: getenv("FACULTYHUB_LOG_LEVEL", "info"),

		AirtableURL:   strings.TrimRight(getenv("FACULTYHUB_AIRTABLE_URL", DefaultAirtableURL), "/"),
		AirtableToken: os.Getenv("FACULTYHUB_AIRTABLE_TOKEN"),
		AirtableBase:  os.Getenv("FACULTYHUB_AIRTABLE_BASE"),
		HTTPTimeout:   getenvDuration("FACULTYHUB_HTTP_TIMEOUT", 15*time.Second),

		AdminUser:         os.Getenv("FACULTYHUB_ADMIN_USER"),
		AdminPasswordHash: os.Getenv("FACULTYHUB_ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("FACULTYHUB_ADMIN_PASSWORD"),

		CSRFKey: os.Getenv("FACULTYHUB_CSRF_KEY"),

		RedisAddr:     os.Getenv("FACULTYHUB_REDIS_ADDR"),
		RedisPassword: os.Getenv("FACULTYHUB_REDIS_PASSWORD"),
		RedisDB:       getenvInt("FACULTYHUB_REDIS_DB", 0),

		ResendKey:  os.Getenv("FACULTYHUB_RESEND_KEY"),
		ResendFrom: getenv("FACULTYHUB_RESEND_FROM", "Faculty Desk <faculty@localhost>"),
		ReplyTo:    os.Getenv("FACULTYHUB_REPLY_TO"),

		DispatchInterval: getenvDuration("FACULTYHUB_DISPATCH_INTERVAL", time.Minute),
		SlowRequestMs:    getenvInt("FACULTYHUB_SLOW_REQUEST_MS", 200),
		SlowQueryMs:      getenvInt("FACULTYHUB_SLOW_QUERY_MS", 50),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// UsesRemoteRecords reports whether both backend credentials are present.
func (c Config) UsesRemoteRecords() bool {
	return c.AirtableToken != "" && c.AirtableBase != ""
}

// Validate checks that the configuration can start the service.
// PRE: c was produced by Load (or built by hand in tests)
// POST: Returns nil if usable; otherwise an error naming every problem
func (c Config) Validate() error {
	var problems []string

	if c.AdminUser == "" {
		problems = append(problems, "FACULTYHUB_ADMIN_USER is required")
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		problems = append(problems, "FACULTYHUB_ADMIN_PASSWORD_HASH is required")
	}
	if (c.AirtableToken == "") != (c.AirtableBase == "") {
		problems = append(problems, "FACULTYHUB_AIRTABLE_TOKEN and FACULTYHUB_AIRTABLE_BASE must be set together")
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if c.IsProduction() {
		if !c.UsesRemoteRecords() {
			problems = append(problems, "remote record backend credentials are required in production")
		}
		if c.AdminPasswordHash == "" {
			problems = append(problems, "FACULTYHUB_ADMIN_PASSWORD_HASH is required in production (plain FACULTYHUB_ADMIN_PASSWORD is development only)")
		}
		if c.CSRFKey == "" {
			problems = append(problems, "FACULTYHUB_CSRF_KEY is required in production")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// CSRFKeyBytes decodes the hex CSRF key. An empty key yields nil, nil.
// PRE: none
// POST: Returns exactly 32 bytes or an error
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("FACULTYHUB_CSRF_KEY must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
