// Package app holds the process wiring shared by the commands: environment,
// logging, store construction and the notification generator.
package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/policy"
)

// LoadEnv loads .env files if present. Variables already set in the
// environment are not overridden.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// Env returns the environment value of key or def when unset.
func Env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// EnvInt returns the integer value of key or def when unset or malformed.
func EnvInt(key string, def int) int {
	if n, err := strconv.Atoi(Env(key, "")); err == nil {
		return n
	}
	return def
}

// EnvFloat returns the float value of key or def when unset or malformed.
func EnvFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(Env(key, ""), 64); err == nil {
		return f
	}
	return def
}

// EnvDuration returns the duration value of key or def when unset or malformed.
func EnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(Env(key, "")); err == nil {
		return d
	}
	return def
}

// NewLogger builds the process logger. format is "console", "json" or
// "auto" (console on a terminal, JSON otherwise).
func NewLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	switch format {
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	case "auto", "":
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseWindow builds the analysis window from a start date (YYYY-MM-DD) and
// a month count. An empty start means the months before the first day of
// the current month, as of now.
func ParseWindow(start string, months int, now time.Time) (domain.Window, error) {
	if months <= 0 {
		months = domain.DefaultWindowMonths
	}
	if start == "" {
		now = now.UTC()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return domain.NewWindow(first.AddDate(0, -months, 0), months), nil
	}
	t, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return domain.Window{}, &domain.ConfigurationError{Field: "window.start", Reason: err.Error()}
	}
	return domain.NewWindow(t, months), nil
}

// LoadPolicy reads a YAML policy file, or returns the built-in policy when path is empty.
func LoadPolicy(path string) (*policy.Policy, error) {
	if path == "" {
		return policy.Default(), nil
	}
	return policy.Load(path)
}
