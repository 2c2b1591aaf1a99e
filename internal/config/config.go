package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Metals     MetalsConfig     `yaml:"metals" mapstructure:"metals"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Lead       LeadConfig       `yaml:"lead" mapstructure:"lead"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Pool        *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds Postgres connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// MetalsConfig holds the spot price provider settings. Zero fallback values
// fall back to the built-in defaults.
type MetalsConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FallbackGold   float64 `yaml:"fallback_gold" mapstructure:"fallback_gold"`
	FallbackSilver float64 `yaml:"fallback_silver" mapstructure:"fallback_silver"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
	Object   string `yaml:"object" mapstructure:"object"`
}

// LeadConfig configures lead relay behavior.
type LeadConfig struct {
	WebhookURL         string `yaml:"webhook_url" mapstructure:"webhook_url"`
	DeliverTimeoutSecs int    `yaml:"deliver_timeout_secs" mapstructure:"deliver_timeout_secs"`
}

// ServerConfig configures the public API server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AnalyzesPerDay  int      `yaml:"analyzes_per_day" mapstructure:"analyzes_per_day"`
	SessionTTLMins  int      `yaml:"session_ttl_mins" mapstructure:"session_ttl_mins"`
	MaxImageBytes   int64    `yaml:"max_image_bytes" mapstructure:"max_image_bytes"`
	MaxImagesPerReq int      `yaml:"max_images_per_req" mapstructure:"max_images_per_req"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SNAPPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "appraisal.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.analyzes_per_day", 10)
	v.SetDefault("server.session_ttl_mins", 60)
	v.SetDefault("server.max_image_bytes", 10<<20)
	v.SetDefault("server.max_images_per_req", 5)
	v.SetDefault("anthropic.model", "claude-opus-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("metals.base_url", "https://api.metalpriceapi.com")
	v.SetDefault("metals.timeout_secs", 5)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.object", "Lead")
	v.SetDefault("lead.deliver_timeout_secs", 30)

	// Keys without a meaningful default still need one registered, otherwise
	// AutomaticEnv never binds them during Unmarshal.
	for _, key := range []string{
		"anthropic.key",
		"metals.key",
		"notion.token",
		"notion.lead_db",
		"salesforce.client_id",
		"salesforce.username",
		"salesforce.key_path",
		"lead.webhook_url",
	} {
		v.SetDefault(key, "")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
