package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the phrasebook server and CLI.
// Precedence: defaults < YAML file (PHRASEBOOK_CONFIG) < environment.
type Config struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AdminKey       string   `yaml:"admin_key"`

	Store  StoreConfig  `yaml:"store"`
	Gemini GeminiConfig `yaml:"gemini"`
	Limits LimitsConfig `yaml:"limits"`

	Timezone              string        `yaml:"timezone"`
	RefreshWorkerInterval time.Duration `yaml:"refresh_worker_interval"`
}

type StoreConfig struct {
	Backend  string `yaml:"backend"` // "sqlite", "redis" or "memory"
	DBPath   string `yaml:"db_path"`
	RedisURL string `yaml:"redis_url"`
	LogSQL   bool   `yaml:"log_sql"`
}

type GeminiConfig struct {
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type LimitsConfig struct {
	MaxDailyRequests     int           `yaml:"max_daily_requests"`
	RefreshInterval      time.Duration `yaml:"refresh_interval"`
	MaxPhrasesPerRequest int           `yaml:"max_phrases_per_request"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:8081"},
		Store: StoreConfig{
			Backend: "sqlite",
			DBPath:  "./data/phrasebook.db",
		},
		Gemini: GeminiConfig{
			Model:             "gemini-3-flash-preview",
			BaseURL:           "https://generativelanguage.googleapis.com/v1beta",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
		},
		Limits: LimitsConfig{
			MaxDailyRequests:     5,
			RefreshInterval:      24 * time.Hour,
			MaxPhrasesPerRequest: 10,
		},
		RefreshWorkerInterval: 5 * time.Minute,
	}
}

// Load builds the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := Default()

	if path := os.Getenv("PHRASEBOOK_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.AdminKey, "ADMIN_KEY")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}

	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.DBPath, "DB_PATH")
	setString(&c.Store.RedisURL, "REDIS_URL")
	setBool(&c.Store.LogSQL, "DB_LOG_SQL")

	setString(&c.Gemini.APIKey, "GOOGLE_API_KEY")
	if c.Gemini.APIKey == "" {
		// Try reading from file as fallback (for local dev)
		if keyPath := os.Getenv("GOOGLE_API_KEY_FILE"); keyPath != "" {
			if data, err := os.ReadFile(keyPath); err == nil {
				c.Gemini.APIKey = strings.TrimSpace(string(data))
			}
		}
	}
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Gemini.BaseURL, "GEMINI_BASE_URL")
	setDuration(&c.Gemini.Timeout, "GEMINI_TIMEOUT")
	setFloat(&c.Gemini.RequestsPerSecond, "GEMINI_RPS")

	setInt(&c.Limits.MaxDailyRequests, "MAX_DAILY_REQUESTS")
	setDuration(&c.Limits.RefreshInterval, "PHRASEBOOK_REFRESH_INTERVAL")
	setInt(&c.Limits.MaxPhrasesPerRequest, "MAX_PHRASES_PER_REQUEST")

	setString(&c.Timezone, "TIMEZONE")
	setDuration(&c.RefreshWorkerInterval, "REFRESH_WORKER_INTERVAL")
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Limits.MaxDailyRequests <= 0 {
		return fmt.Errorf("max daily requests must be positive, got %d", c.Limits.MaxDailyRequests)
	}
	if c.Limits.MaxPhrasesPerRequest <= 0 {
		return fmt.Errorf("max phrases per request must be positive, got %d", c.Limits.MaxPhrasesPerRequest)
	}
	if c.Limits.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", c.Limits.RefreshInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone used for calendar-day quota boundaries.
// An empty Timezone means the process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			*dst = parsed
		} else {
			log.Printf("Warning: ignoring invalid %s=%q", key, v)
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			*dst = parsed
		} else {
			log.Printf("Warning: ignoring invalid %s=%q", key, v)
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			*dst = parsed
		} else {
			log.Printf("Warning: ignoring invalid %s=%q", key, v)
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		*dst = v == "1" || v == "true" || v == "yes"
	}
}
