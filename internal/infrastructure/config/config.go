package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Invoicing  InvoicingConfig
	Storefront StorefrontConfig
	Sync       SyncConfig
	Redis      RedisConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
	// WebhookTimeout bounds a single webhook delivery, remote calls included
	WebhookTimeout time.Duration
	// Per-client token bucket applied to webhook routes
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	TrustedProxies   []string
	// HSTSMaxAge enables Strict-Transport-Security when positive
	HSTSMaxAge time.Duration
}

// InvoicingConfig holds e-Racuni API credentials and pacing
type InvoicingConfig struct {
	APIURL       string
	Username     string
	Password     string // plain password, hashed at startup when PasswordHash is empty
	PasswordHash string // md5 hex digest sent as md5pass
	Token        string
	// CashRegisterCode is the fixed business-premise code put on every invoice
	CashRegisterCode string
	Timeout          time.Duration
	// MinCallInterval is the minimum gap between two calls to the API, process wide
	MinCallInterval time.Duration
}

// StorefrontConfig holds Shopify Admin API settings
type StorefrontConfig struct {
	ShopDomain    string
	AccessToken   string
	APIVersion    string
	BaseURL       string // overrides https://{domain}/admin/api/{version}
	WebhookSecret string // enables X-Shopify-Hmac-Sha256 verification when set
	Timeout       time.Duration
}

// SyncConfig holds reconciliation settings
type SyncConfig struct {
	// ChangeWindow is how recent a variant update must be for a create webhook to act on it
	ChangeWindow time.Duration
	// ScheduleEnabled turns on periodic full reconciliation
	ScheduleEnabled bool
	ScheduleInterval time.Duration
	RunOnStart       bool
	// RunTimeout bounds a single reconciliation pass
	RunTimeout time.Duration
	// IdempotencyBackend is "memory" or "redis"
	IdempotencyBackend string
	IdempotencyTTL     time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	LogsEnabled       bool   // Forward zap records through the OTLP log exporter
	LogsLevel         string // Minimum level forwarded to the collector
}

// defaults are registered with viper so config files and STORESYNC_*
// variables only need to name what differs.
var defaults = map[string]any{
	"app.name": "storesync",
	"app.env":  "development",
	"app.port": "8080",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	// a full pass paces every invoicing call, so the sync route needs a long write timeout
	"http.write_timeout":    30 * time.Minute,
	"http.read_timeout":     15 * time.Second,
	"http.idle_timeout":     60 * time.Second,
	"http.shutdown_timeout": 30 * time.Second,
	"http.max_header_bytes": 1 << 20,
	"http.max_body_size":    10 << 20,
	"http.webhook_timeout":  2 * time.Minute,
	"http.rate_limit_rps":   5.0,
	"http.rate_limit_burst": 20,

	"invoicing.api_url":            "https://e-racuni.com/S8c/API",
	"invoicing.cash_register_code": "B1",
	"invoicing.timeout":            30 * time.Second,
	"invoicing.min_call_interval":  2 * time.Second,

	"storefront.api_version": "2025-04",
	"storefront.timeout":     30 * time.Second,

	"sync.change_window":       120 * time.Second,
	"sync.schedule_interval":   6 * time.Hour,
	"sync.run_timeout":         2 * time.Hour,
	"sync.idempotency_backend": "memory",
	"sync.idempotency_ttl":     24 * time.Hour,

	"redis.host": "localhost",
	"redis.port": 6379,

	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "storesync",
	"telemetry.metrics_interval":   60 * time.Second,
	"telemetry.logs_level":         "info",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("STORESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads ./config.toml or /app/config.toml when present. STORESYNC_*
// environment variables override the file, which overrides the defaults.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return build(v)
}

// LoadFile is Load with an explicit file, which must exist
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	cfg := decode(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			WebhookTimeout:   v.GetDuration("http.webhook_timeout"),
			RateLimitEnabled: v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:     v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			HSTSMaxAge:       v.GetDuration("http.hsts_max_age"),
		},
		Invoicing: InvoicingConfig{
			APIURL:           v.GetString("invoicing.api_url"),
			Username:         v.GetString("invoicing.username"),
			Password:         v.GetString("invoicing.password"),
			PasswordHash:     v.GetString("invoicing.password_hash"),
			Token:            v.GetString("invoicing.token"),
			CashRegisterCode: v.GetString("invoicing.cash_register_code"),
			Timeout:          v.GetDuration("invoicing.timeout"),
			MinCallInterval:  v.GetDuration("invoicing.min_call_interval"),
		},
		Storefront: StorefrontConfig{
			ShopDomain:    v.GetString("storefront.shop_domain"),
			AccessToken:   v.GetString("storefront.access_token"),
			APIVersion:    v.GetString("storefront.api_version"),
			BaseURL:       v.GetString("storefront.base_url"),
			WebhookSecret: v.GetString("storefront.webhook_secret"),
			Timeout:       v.GetDuration("storefront.timeout"),
		},
		Sync: SyncConfig{
			ChangeWindow:       v.GetDuration("sync.change_window"),
			ScheduleEnabled:    v.GetBool("sync.schedule_enabled"),
			ScheduleInterval:   v.GetDuration("sync.schedule_interval"),
			RunOnStart:         v.GetBool("sync.run_on_start"),
			RunTimeout:         v.GetDuration("sync.run_timeout"),
			IdempotencyBackend: v.GetString("sync.idempotency_backend"),
			IdempotencyTTL:     v.GetDuration("sync.idempotency_ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			LogsLevel:         v.GetString("telemetry.logs_level"),
		},
	}
}

// validate collects every problem instead of stopping at the first
func (c *Config) validate() error {
	var errs []error
	check := func(bad bool, format string, args ...any) {
		if bad {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Invoicing.MinCallInterval < 0, "invoicing.min_call_interval cannot be negative")
	check(c.Sync.ChangeWindow < 0, "sync.change_window cannot be negative")
	check(c.Sync.ScheduleEnabled && c.Sync.ScheduleInterval < time.Minute,
		"sync.schedule_interval must be at least 1m, got %s", c.Sync.ScheduleInterval)
	check(c.Sync.IdempotencyBackend != "memory" && c.Sync.IdempotencyBackend != "redis",
		"sync.idempotency_backend must be 'memory' or 'redis', got %q", c.Sync.IdempotencyBackend)
	check(c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0,
		"http.rate_limit_rps and http.rate_limit_burst cannot be negative")
	check(c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)

	if c.App.Env == "production" {
		check(c.Invoicing.Username == "" || c.Invoicing.Token == "",
			"invoicing.username and invoicing.token are required in production")
		check(c.Invoicing.Password == "" && c.Invoicing.PasswordHash == "",
			"invoicing.password or invoicing.password_hash is required in production")
		check(c.Storefront.ShopDomain == "" || c.Storefront.AccessToken == "",
			"storefront.shop_domain and storefront.access_token are required in production")
		check(c.Storefront.WebhookSecret == "", "storefront.webhook_secret is required in production")
	}

	return errors.Join(errs...)
}
