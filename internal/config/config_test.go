package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/spontis",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.InvitationTTL)
	require.Equal(t, 5*time.Minute, cfg.ActiveSetCacheTTL)
	require.Equal(t, 24*time.Hour, cfg.DistanceCacheTTL)
	require.Equal(t, 120, cfg.RateLimitMax)
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.Equal(t, "https://maps.googleapis.com/maps/api", cfg.MapsBaseURL)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := LoadForTests(env)
	require.Error(t, err)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	env := baseEnv()
	env["JWT_SECRET"] = ""
	_, err := LoadForTests(env)
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9999"
	env["ACTIVE_SET_CACHE_TTL"] = "90s"
	env["RATE_LIMIT_MAX"] = "10"
	env["COOKIE_SAMESITE"] = "strict"
	env["CORS_ALLOWED_ORIGINS"] = "https://app.spontis.ch, https://admin.spontis.ch"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.HTTPAddr())
	require.Equal(t, 90*time.Second, cfg.ActiveSetCacheTTL)
	require.Equal(t, 10, cfg.RateLimitMax)
	require.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	require.Equal(t, []string{"https://app.spontis.ch", "https://admin.spontis.ch"}, cfg.CORSAllowedOrigins)
}

func TestParseDurationFallsBack(t *testing.T) {
	env := baseEnv()
	env["ACCESS_TOKEN_TTL"] = "not-a-duration"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}
