package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGemini       = "gemini"
	BackendPollinations = "pollinations"

	defaultGeminiModel          = "gemini-2.5-flash-image"
	defaultPollinationsEndpoint = "https://api.pollinations.ai/generate"
	defaultGeminiKeyEnv         = "GEMINI_API_KEY"
	defaultPollinationsKeyEnv   = "POLLINATIONS_API_KEY"
)

// Config はプロセス全体の設定です。
// API キーそのものは保持せず、キーを格納した環境変数の名前だけを持ちます。
type Config struct {
	Backend              string
	CredentialEnv        string
	GeminiModel          string
	PollinationsEndpoint string
	MaxAttempts          int
	BaseDelay            time.Duration
	CompressionQuality   int
	FetchTimeout         time.Duration
	Port                 string
}

// Load は .env (存在する場合) と環境変数から設定を読み込み、検証します。
func Load() (*Config, error) {
	// .env がない場合のみ黙って続行する。
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env の読み込みに失敗しました。環境変数のみで続行します", "error", err)
	}

	maxAttempts, err := getEnvInt("GENIMAGE_MAX_ATTEMPTS", 4)
	if err != nil {
		return nil, err
	}
	baseDelay, err := getEnvDuration("GENIMAGE_BASE_DELAY", 800*time.Millisecond)
	if err != nil {
		return nil, err
	}
	quality, err := getEnvInt("GENIMAGE_COMPRESSION_QUALITY", 0)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := getEnvDuration("GENIMAGE_FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Backend:              strings.ToLower(getEnv("GENIMAGE_BACKEND", BackendGemini)),
		GeminiModel:          getEnv("GEMINI_MODEL", defaultGeminiModel),
		PollinationsEndpoint: getEnv("POLLINATIONS_ENDPOINT", defaultPollinationsEndpoint),
		MaxAttempts:          maxAttempts,
		BaseDelay:            baseDelay,
		CompressionQuality:   quality,
		FetchTimeout:         fetchTimeout,
		Port:                 getEnv("PORT", "8080"),
	}
	cfg.CredentialEnv = getEnv("GENIMAGE_CREDENTIAL_ENV", cfg.defaultCredentialEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("設定を読み込みました",
		"backend", cfg.Backend,
		"credential_env", cfg.CredentialEnv,
		"max_attempts", cfg.MaxAttempts,
		"base_delay", cfg.BaseDelay,
		"port", cfg.Port,
	)
	return cfg, nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGemini, BackendPollinations:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendGemini, BackendPollinations)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("GENIMAGE_MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("GENIMAGE_BASE_DELAY must not be negative, got %s", c.BaseDelay)
	}
	if c.CompressionQuality < 0 || c.CompressionQuality > 100 {
		return fmt.Errorf("GENIMAGE_COMPRESSION_QUALITY must be between 0 and 100, got %d", c.CompressionQuality)
	}
	if c.CredentialEnv == "" {
		return fmt.Errorf("GENIMAGE_CREDENTIAL_ENV must not be empty")
	}
	return nil
}

func (c *Config) defaultCredentialEnv() string {
	if c.Backend == BackendPollinations {
		return defaultPollinationsKeyEnv
	}
	return defaultGeminiKeyEnv
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 800ms: %w", key, err)
	}
	return d, nil
}
