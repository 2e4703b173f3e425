package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/notification"
	"bank-personalization/internal/policy"
)

func TestEnvDefaults(t *testing.T) {
	t.Setenv("APP_TEST_WORKERS", "8")
	t.Setenv("APP_TEST_BAD", "eight")
	t.Setenv("APP_TEST_INTERVAL", "90s")

	assert.Equal(t, 8, EnvInt("APP_TEST_WORKERS", 4))
	assert.Equal(t, 4, EnvInt("APP_TEST_BAD", 4))
	assert.Equal(t, "x", Env("APP_TEST_UNSET", "x"))
	assert.Equal(t, 90*time.Second, EnvDuration("APP_TEST_INTERVAL", time.Hour))
	assert.Equal(t, 2.5, EnvFloat("APP_TEST_UNSET", 2.5))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("warn", "json", &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"test"`)

	_, err = NewLogger("loud", "json", &buf)
	assert.Error(t, err)
	_, err = NewLogger("info", "xml", &buf)
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2025-06-01", 3, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01..2025-09-01", w.String())

	now := time.Date(2025, 9, 17, 8, 0, 0, 0, time.UTC)
	w, err = ParseWindow("", 0, now)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01..2025-09-01", w.String())

	_, err = ParseWindow("06/01/2025", 3, now)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestLoadPolicy_DefaultWhenEmpty(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultVersion, p.Version)
}

func TestOpenStores_Memory(t *testing.T) {
	s, err := OpenStores(context.Background(), StoreConfig{UseMemory: true}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	catalog, err := s.Catalog.GetCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog.Products(), 10)
	assert.NotNil(t, s.Analytics)

	_, err = OpenStores(context.Background(), StoreConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()

	gen, closeFn, err := NewNotifier(ctx, NotifierConfig{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, gen)
	closeFn()

	gen, closeFn, err = NewNotifier(ctx, NotifierConfig{Enabled: true}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notification.TemplateGenerator{}, gen)
	closeFn()

	gen, closeFn, err = NewNotifier(ctx, NotifierConfig{Enabled: true, APIURL: "http://localhost:1"}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notification.APIGenerator{}, gen)
	closeFn()
}
