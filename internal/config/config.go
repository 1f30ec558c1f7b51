package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "MiniWallet"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultTokenTTL       = 24 * time.Hour
	defaultOTPTTL         = 5 * time.Minute
	defaultOTPResendDelay = 60 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
)

// Config captures walletd runtime configuration loaded from environment
// variables. DATABASE_URL and REDIS_URL may be left empty in development,
// in which case in-memory backends are used.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	TokenSecret       string
	TokenTTL          time.Duration
	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	ShutdownPeriod    time.Duration
	IdempotencyTTL    time.Duration
}

// Load reads walletd configuration values from the environment.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		TokenSecret:       getEnv("TOKEN_SECRET", "dev-only-secret"),
		TokenTTL:          defaultTokenTTL,
		OTPTTL:            defaultOTPTTL,
		OTPResendCooldown: defaultOTPResendDelay,
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationEnv("OTP_TTL", cfg.OTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPResendCooldown, err = durationEnv("OTP_RESEND_COOLDOWN", cfg.OTPResendCooldown); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if !IsDev(cfg.AppEnv) && cfg.TokenSecret == "dev-only-secret" {
		return Config{}, fmt.Errorf("TOKEN_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the environment name refers to a development setup.
func IsDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

const (
	defaultClientTimeout = 10 * time.Second
	defaultBaseURL       = "http://localhost:8080"
)

// Client captures wallet terminal client configuration.
type Client struct {
	BaseURL  string
	Timeout  time.Duration
	StateDir string
	LogLevel string
}

// LoadClient reads client configuration from the environment. The state
// directory defaults to ~/.mini-wallet and holds the cached session.
func LoadClient() (Client, error) {
	cfg := Client{
		BaseURL:  getEnv("WALLET_API_URL", defaultBaseURL),
		Timeout:  defaultClientTimeout,
		StateDir: os.Getenv("WALLET_STATE_DIR"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "warn")),
	}

	var err error
	if cfg.Timeout, err = durationEnv("WALLET_API_TIMEOUT", cfg.Timeout); err != nil {
		return Client{}, err
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Client{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".mini-wallet")
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
