// Package config loads application settings from a YAML file, an optional
// .env file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Areas  AreasConfig  `yaml:"areas"`
	Cache  CacheConfig  `yaml:"cache"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Notify NotifyConfig `yaml:"notify"`
}

// APIConfig configures the external vacancy-search API client.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	PerPage        int           `yaml:"per_page"`
	OnlyWithSalary bool          `yaml:"only_with_salary"`
	Timeout        time.Duration `yaml:"timeout"`
	MinInterval    time.Duration `yaml:"min_interval"`
	ProxyURL       string        `yaml:"proxy_url"`
}

// AreasConfig selects the region hierarchy root and its refresh schedule.
type AreasConfig struct {
	Root    string `yaml:"root"`
	Refresh string `yaml:"refresh"` // cron spec
}

type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"` // empty disables the page cache
	TTL      time.Duration `yaml:"ttl"`
}

type StoreConfig struct {
	DatabaseURL string `yaml:"database_url"` // empty selects the in-memory store
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	JWTSecret      string   `yaml:"jwt_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type NotifyConfig struct {
	TelegramToken     string `yaml:"telegram_token"`
	TelegramChatID    string `yaml:"telegram_chat_id"`
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
}

// MinJWTSecret is the shortest accepted HS256 signing secret.
const MinJWTSecret = 32

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://api.hh.ru",
			UserAgent:   "go-vacancies/1.0 (support@go-vacancies.dev)",
			PerPage:     20,
			Timeout:     15 * time.Second,
			MinInterval: 250 * time.Millisecond,
		},
		Areas: AreasConfig{
			Root:    "1174",
			Refresh: "@every 24h",
		},
		Cache:  CacheConfig{TTL: 10 * time.Minute},
		Server: ServerConfig{Port: "8080"},
	}
}

// Load reads the YAML file at path (optional), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadYAML(path, Default)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HH_BASE_URL", &c.API.BaseURL)
	str("HH_USER_AGENT", &c.API.UserAgent)
	str("HTTP_PROXY_URL", &c.API.ProxyURL)
	str("AREA_ROOT", &c.Areas.Root)
	str("AREA_REFRESH", &c.Areas.Refresh)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	str("PORT", &c.Server.Port)
	str("JWT_SECRET", &c.Server.JWTSecret)
	str("TELEGRAM_TOKEN", &c.Notify.TelegramToken)
	str("TELEGRAM_CHAT_ID", &c.Notify.TelegramChatID)
	str("DISCORD_WEBHOOK_URL", &c.Notify.DiscordWebhookURL)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("HH_PER_PAGE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: HH_PER_PAGE: %w", err)
		}
		c.API.PerPage = n
	}
	if v, ok := lookup("HH_ONLY_WITH_SALARY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: HH_ONLY_WITH_SALARY: %w", err)
		}
		c.API.OnlyWithSalary = b
	}
	if v, ok := lookup("CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); c.API.BaseURL == "" || err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.PerPage < 1 || c.API.PerPage > 100 {
		errs = append(errs, fmt.Errorf("api.per_page %d is outside 1..100", c.API.PerPage))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.API.MinInterval < 0 {
		errs = append(errs, errors.New("api.min_interval must not be negative"))
	}
	if strings.TrimSpace(c.Areas.Root) == "" {
		errs = append(errs, errors.New("areas.root is empty"))
	}
	if c.Cache.RedisURL != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive when redis_url is set"))
	}
	if c.Store.DatabaseURL != "" && c.Cache.RedisURL == "" {
		errs = append(errs, errors.New("store.database_url requires cache.redis_url for change notifications"))
	}
	if c.Server.JWTSecret != "" && len(c.Server.JWTSecret) < MinJWTSecret {
		errs = append(errs, fmt.Errorf("server.jwt_secret must be at least %d bytes", MinJWTSecret))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
