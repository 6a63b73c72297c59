package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultAPIBase = "http://localhost:8080"

type AppConfig struct {
	// Backend
	APIBase     string        `yaml:"api_base"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst   int           `yaml:"rate_burst"`

	// Local persistence
	Store     string `yaml:"store"` // file | redis | memory
	DataDir   string `yaml:"data_dir"`
	RedisAddr string `yaml:"redis_addr"`
	RedisPass string `yaml:"redis_pass"`
	RedisDB   int    `yaml:"redis_db"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DevAPI DevAPIConfig `yaml:"devapi"`
}

// DevAPIConfig configures the local development backend.
type DevAPIConfig struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`

	// Empty allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Reset links are logged when SMTPHost is empty.
	ResetURL     string `yaml:"reset_url"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPass     string `yaml:"smtp_pass"`
	SMTPFromName string `yaml:"smtp_from_name"`
	SMTPSecure   bool   `yaml:"smtp_secure"`
}

func defaults() AppConfig {
	return AppConfig{
		APIBase:     DefaultAPIBase,
		HTTPTimeout: 30 * time.Second,
		RateLimit:   0,
		RateBurst:   5,
		Store:       "file",
		DataDir:     defaultDataDir(),
		RedisAddr:   "localhost:6379",
		LogLevel:    "info",
		LogFormat:   "console",
		DevAPI: DevAPIConfig{
			Addr:          ":8080",
			JWTSecret:     "devapi-insecure-secret",
			TokenTTL:      24 * time.Hour,
			AdminEmail:    "admin@trackpro.local",
			AdminPassword: "admin-password",
			ResetURL:      "http://localhost:5173/reset-password",
			SMTPPort:      "587",
			SMTPFromName:  "GPX TrackPro",
		},
	}
}

// Load builds the config from defaults, then the optional YAML file named by
// TRACKPRO_CONFIG, then environment variables.
func Load() (AppConfig, error) {
	cfg := defaults()

	if path := os.Getenv("TRACKPRO_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	cfg.APIBase = getEnv("TRACKPRO_API_BASE", getEnv("VITE_API_BASE", cfg.APIBase))
	cfg.APIBase = strings.TrimSuffix(cfg.APIBase, "/")
	cfg.HTTPTimeout = getEnvDuration("TRACKPRO_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.RateLimit = getEnvFloat("TRACKPRO_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = getEnvInt("TRACKPRO_RATE_BURST", cfg.RateBurst)

	cfg.Store = strings.ToLower(getEnv("TRACKPRO_STORE", cfg.Store))
	cfg.DataDir = getEnv("TRACKPRO_DATA_DIR", cfg.DataDir)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPass = getEnv("REDIS_PASS", cfg.RedisPass)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)

	cfg.LogLevel = getEnv("TRACKPRO_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("TRACKPRO_LOG_FORMAT", cfg.LogFormat)

	cfg.DevAPI.Addr = getEnv("DEVAPI_ADDR", cfg.DevAPI.Addr)
	cfg.DevAPI.JWTSecret = getEnv("DEVAPI_JWT_SECRET", cfg.DevAPI.JWTSecret)
	cfg.DevAPI.TokenTTL = getEnvDuration("DEVAPI_TOKEN_TTL", cfg.DevAPI.TokenTTL)
	cfg.DevAPI.AdminEmail = getEnv("DEVAPI_ADMIN_EMAIL", cfg.DevAPI.AdminEmail)
	cfg.DevAPI.AdminPassword = getEnv("DEVAPI_ADMIN_PASSWORD", cfg.DevAPI.AdminPassword)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.DevAPI.AllowedOrigins = splitList(v)
	}
	cfg.DevAPI.ResetURL = getEnv("DEVAPI_RESET_URL", cfg.DevAPI.ResetURL)
	cfg.DevAPI.SMTPHost = getEnv("SMTP_HOST", cfg.DevAPI.SMTPHost)
	cfg.DevAPI.SMTPPort = getEnv("SMTP_PORT", cfg.DevAPI.SMTPPort)
	cfg.DevAPI.SMTPUser = getEnv("SMTP_USER", cfg.DevAPI.SMTPUser)
	cfg.DevAPI.SMTPPass = getEnv("SMTP_PASS", cfg.DevAPI.SMTPPass)
	cfg.DevAPI.SMTPFromName = getEnv("SMTP_FROM_NAME", cfg.DevAPI.SMTPFromName)
	cfg.DevAPI.SMTPSecure = getEnvBool("SMTP_SECURE", cfg.DevAPI.SMTPSecure)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	switch c.Store {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unsupported store %q (want file, redis or memory)", c.Store)
	}
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api base %q must be an http(s) URL", c.APIBase)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "trackpro")
	}
	return ".trackpro"
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
