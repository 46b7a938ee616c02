// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretLen is the shortest JWT_SECRET accepted at startup.
const MinSecretLen = 32

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Durations use Go syntax ("15m", "168h").
type Config struct {
	Env               string        // APP_ENV: dev, test or prod
	Port              string        // APP_PORT
	DBUser            string        // DB_USER
	DBPass            string        // DB_PASS (empty allowed)
	DBHost            string        // DB_HOST
	DBPort            string        // DB_PORT
	DBName            string        // DB_NAME
	JWTSecret         string        // JWT_SECRET, at least MinSecretLen bytes
	AccessTTL         time.Duration // ACCESS_TOKEN_TTL
	RefreshTTL        time.Duration // REFRESH_TOKEN_TTL
	BcryptCost        int           // BCRYPT_COST
	UploadDir         string        // UPLOAD_DIR, root of stored files
	CookieSecure      bool          // COOKIE_SECURE
	LegacyTransitions bool          // LEGACY_TRANSITIONS selects the superseded status graph
}

// Load reads a .env file when present and then the process environment.
// Every missing or malformed variable is reported in the returned error.
func Load() (Config, error) {
	_ = godotenv.Load()

	l := &loader{}
	cfg := Config{
		Env:               l.must("APP_ENV"),
		Port:              l.must("APP_PORT"),
		DBUser:            l.must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            l.must("DB_HOST"),
		DBPort:            l.must("DB_PORT"),
		DBName:            l.must("DB_NAME"),
		JWTSecret:         l.must("JWT_SECRET"),
		AccessTTL:         l.duration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:        l.duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:        l.mustInt("BCRYPT_COST"),
		UploadDir:         getenv("UPLOAD_DIR", "public"),
		CookieSecure:      envBool("COOKIE_SECURE", true),
		LegacyTransitions: envBool("LEGACY_TRANSITIONS", false),
	}
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < MinSecretLen {
		l.fail(fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLen))
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		l.fail(errors.New("token TTLs must be positive"))
	}
	return cfg, errors.Join(l.errs...)
}

// DSN builds the go-sql-driver/mysql connection string. clientFoundRows makes
// RowsAffected count matched rows, which conditional updates rely on.
func (c Config) DSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth = c.DBUser + ":" + c.DBPass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true&multiStatements=true",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// loader collects lookup failures so Load can report all of them at once.
type loader struct{ errs []error }

func (l *loader) fail(err error) { l.errs = append(l.errs, err) }

func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		l.fail(fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.fail(fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		l.fail(fmt.Errorf("invalid duration for %s: %q", key, s))
		return def
	}
	return d
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
