package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Session    SessionConfig    `mapstructure:"session"`
	Languages  LanguageConfig   `mapstructure:"languages"`
	Safety     SafetyConfig     `mapstructure:"safety"`
	Vendors    VendorsConfig    `mapstructure:"vendors"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Transports TransportsConfig `mapstructure:"transports"`
}

type SessionConfig struct {
	TimeoutSeconds int         `mapstructure:"timeout_seconds"`
	Store          string      `mapstructure:"store"`
	Redis          RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LanguageConfig struct {
	Supported []string `mapstructure:"supported"`
	Default   string   `mapstructure:"default"`
}

type SafetyConfig struct {
	ExitWords      []string `mapstructure:"exit_words"`
	EmergencyWords []string `mapstructure:"emergency_words"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	LLM VendorConfig `mapstructure:"llm"`
	STT VendorConfig `mapstructure:"stt"`
}

type GatewayConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts"`
	BackoffMS         int `mapstructure:"backoff_ms"`
	BreakerThreshold  int `mapstructure:"breaker_threshold"`
	BreakerCooldownMS int `mapstructure:"breaker_cooldown_ms"`
}

type TransportsConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

// SessionTimeout returns the configured sliding window.
func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutSeconds) * time.Second
}

// Backoff returns the gateway's base retry delay.
func (c GatewayConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// BreakerCooldown returns the breaker's open window.
func (c GatewayConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownMS) * time.Millisecond
}

// Load reads the config file (optional when path is empty) and applies
// defaults plus environment overrides for secrets.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// Running on defaults plus env is fine.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("session.timeout_seconds", 300)
	v.SetDefault("session.store", "memory")
	v.SetDefault("languages.supported", []string{"en", "hi", "mr", "bn"})
	v.SetDefault("languages.default", "en")
	v.SetDefault("vendors.llm.provider", "gemini")
	v.SetDefault("vendors.stt.provider", "gemini")
	v.SetDefault("gateway.max_attempts", 3)
	v.SetDefault("gateway.backoff_ms", 1000)
	v.SetDefault("gateway.breaker_threshold", 0)
	v.SetDefault("gateway.breaker_cooldown_ms", 30000)
	v.SetDefault("transports.provider", "twilio")
}

// applyEnvOverrides keeps secrets out of the config file, using the
// same variable names the deployment already exports.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		setSetting(&cfg.Vendors.LLM, "api_key", key)
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		setSetting(&cfg.Vendors.LLM, "model", model)
	}
	if key := os.Getenv("DEEPGRAM_API_KEY"); key != "" {
		setSetting(&cfg.Vendors.STT, "api_key", key)
	}
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		setTransportSetting(&cfg.Transports, "account_sid", sid)
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		setTransportSetting(&cfg.Transports, "auth_token", token)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Session.Redis.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			setTransportSetting(&cfg.Transports, "server_addr", ":"+port)
		}
	}
}

func setSetting(vc *VendorConfig, key, value string) {
	if vc.Settings == nil {
		vc.Settings = make(map[string]any)
	}
	vc.Settings[key] = value
}

func setTransportSetting(tc *TransportsConfig, key, value string) {
	if tc.Settings == nil {
		tc.Settings = make(map[string]any)
	}
	tc.Settings[key] = value
}
