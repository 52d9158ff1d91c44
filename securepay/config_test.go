package securepay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alovak/securepay/internal/security"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("REPO_BACKEND", "")
	t.Setenv("CURRENCY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "pg", cfg.RepoBackend)
	require.Equal(t, "MXN", cfg.Currency)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.False(t, cfg.DevRoutes)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("REPO_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("CARD_FETCH_TIMEOUT", "750ms")
	t.Setenv("DEV_ROUTES", "true")
	t.Setenv("HSM_SLOT", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.RepoBackend)
	require.Equal(t, "cache:6379", cfg.RedisAddr)
	require.Equal(t, "USD", cfg.Currency)
	require.Equal(t, 750*time.Millisecond, cfg.CardFetchTimeout)
	require.True(t, cfg.DevRoutes)
	require.Equal(t, uint(2), cfg.HSM.SlotID)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"backend":  {"REPO_BACKEND", "mongo"},
		"source":   {"TOKEN_SECRET_SOURCE", "vault"},
		"ttl":      {"TOKEN_TTL", "soon"},
		"negative": {"CARD_FETCH_TIMEOUT", "-1s"},
		"tz":       {"EXPIRY_TZ", "Mars/Olympus"},
		"slot":     {"HSM_SLOT", "x"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

func TestConfig_SecretProvider(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, security.EnvSecret{Name: "TOKEN_SECRET"}, cfg.SecretProvider())

	cfg.Secret = security.StaticSecret("s")
	require.Equal(t, security.StaticSecret("s"), cfg.SecretProvider())
}
