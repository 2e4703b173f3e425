package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bank-personalization/internal/notification"
	"bank-personalization/internal/observability"
)

// NotifierConfig selects the notification generator.
type NotifierConfig struct {
	Enabled    bool
	APIURL     string // empty uses templates only
	APIKey     string
	Model      string
	RatePerSec float64
	RedisAddr  string // empty uses an in-process cache
	CacheTTL   time.Duration
}

// NewNotifier returns nil when notifications are disabled. The returned
// close function is never nil.
func NewNotifier(ctx context.Context, cfg NotifierConfig, m *observability.Metrics, log zerolog.Logger) (notification.Generator, func(), error) {
	noop := func() {}
	if !cfg.Enabled {
		return nil, noop, nil
	}
	if cfg.APIURL == "" {
		return notification.NewTemplateGenerator(m), noop, nil
	}

	var cache notification.Cache = notification.NewMemoryCache(cfg.CacheTTL)
	closeFn := noop
	if cfg.RedisAddr != "" {
		rc, err := notification.NewRedisCache(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			return nil, noop, err
		}
		cache = rc
		closeFn = func() { _ = rc.Close() }
	}

	gen := notification.NewAPIGenerator(notification.APIConfig{
		URL:        cfg.APIURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		RatePerSec: cfg.RatePerSec,
	}, cache, m, log)
	return gen, closeFn, nil
}

// NotifierConfigFromEnv reads the notification settings from the environment.
func NotifierConfigFromEnv(enabled bool) NotifierConfig {
	return NotifierConfig{
		Enabled:    enabled,
		APIURL:     Env("NOTIFY_API_URL", ""),
		APIKey:     Env("NOTIFY_API_KEY", ""),
		Model:      Env("NOTIFY_MODEL", "gpt-4o-mini"),
		RatePerSec: EnvFloat("NOTIFY_RATE", 2),
		RedisAddr:  Env("REDIS_ADDR", ""),
		CacheTTL:   EnvDuration("NOTIFY_CACHE_TTL", 24*time.Hour),
	}
}
