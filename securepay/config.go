package securepay

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alovak/securepay/internal/security"
	"github.com/alovak/securepay/internal/security/hsm"
)

// Config is a configuration for the securepay application
type Config struct {
	HTTPAddr string
	// RepoBackend selects the card store: pg, bolt, redis, or mem (tests only).
	RepoBackend     string
	AllowMemBackend bool
	DBDSN           string
	BoltPath        string
	RedisAddr       string
	RedisKeyPrefix  string

	// SecretSource is "env" (TOKEN_SECRET) or "hsm".
	SecretSource string
	HSM          hsm.Config
	// Secret overrides SecretSource when set.
	Secret security.SecretProvider

	// Currency is the single currency amounts are rendered in.
	Currency string
	// ExpiryTZ is an IANA timezone name used to decide whether a card is expired.
	ExpiryTZ         string
	TokenTTL         time.Duration
	CardFetchTimeout time.Duration
	// DevRoutes mounts /dev/tokens and /dev/cards. Never enable in production.
	DevRoutes bool
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:         "localhost:9090",
		RepoBackend:      "pg",
		BoltPath:         "securepay.db",
		RedisAddr:        "localhost:6379",
		RedisKeyPrefix:   "securepay:card:",
		SecretSource:     "env",
		Currency:         "MXN",
		ExpiryTZ:         "UTC",
		TokenTTL:         15 * time.Minute,
		CardFetchTimeout: 3 * time.Second,
	}
}

// FromEnv overlays environment variables on DefaultConfig.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RepoBackend = getenv("REPO_BACKEND", cfg.RepoBackend)
	cfg.AllowMemBackend = getenv("ALLOW_MEM_BACKEND_FOR_TESTS", "false") == "true"
	cfg.DBDSN = getenv("DB_DSN", "")
	cfg.BoltPath = getenv("BOLT_PATH", cfg.BoltPath)
	cfg.RedisAddr = getenv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisKeyPrefix = getenv("REDIS_KEY_PREFIX", cfg.RedisKeyPrefix)
	cfg.SecretSource = getenv("TOKEN_SECRET_SOURCE", cfg.SecretSource)
	cfg.Currency = strings.ToUpper(getenv("CURRENCY", cfg.Currency))
	cfg.ExpiryTZ = getenv("EXPIRY_TZ", cfg.ExpiryTZ)
	cfg.DevRoutes = getenv("DEV_ROUTES", "false") == "true"

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}
	if cfg.CardFetchTimeout, err = durationEnv("CARD_FETCH_TIMEOUT", cfg.CardFetchTimeout); err != nil {
		return nil, err
	}

	cfg.HSM = hsm.Config{
		LibPath:  getenv("HSM_LIB", ""),
		PIN:      getenv("HSM_PIN", ""),
		KeyLabel: getenv("HSM_KEY_LABEL", "securepay-master"),
	}
	if slot := getenv("HSM_SLOT", ""); slot != "" {
		n, err := strconv.ParseUint(slot, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("HSM_SLOT: %w", err)
		}
		cfg.HSM.SlotID = uint(n)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.RepoBackend {
	case "pg", "bolt", "redis", "mem":
	default:
		return fmt.Errorf("unsupported REPO_BACKEND=%s", c.RepoBackend)
	}
	switch c.SecretSource {
	case "env", "hsm":
	default:
		return fmt.Errorf("unsupported TOKEN_SECRET_SOURCE=%s", c.SecretSource)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.CardFetchTimeout <= 0 {
		return fmt.Errorf("card fetch timeout must be positive")
	}
	if _, err := time.LoadLocation(c.ExpiryTZ); err != nil {
		return fmt.Errorf("EXPIRY_TZ: %w", err)
	}
	return nil
}

// SecretProvider returns the configured master secret source.
func (c *Config) SecretProvider() security.SecretProvider {
	if c.Secret != nil {
		return c.Secret
	}
	if c.SecretSource == "hsm" {
		return hsm.New(c.HSM)
	}
	return security.EnvSecret{Name: "TOKEN_SECRET"}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := getenv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
