// Package config loads the agent configuration from viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kakao/partnersso/core"
	"github.com/spf13/viper"
)

const (
	PhaseKey          = "phase"
	AccessGroupKey    = "access_group"
	RedisURLKey       = "redis.url"
	PrefsBackendKey   = "prefs.backend"
	PrefsPathKey      = "prefs.path"
	InstallationKey   = "prefs.installation"
	HTTPAddrKey       = "http.addr"
	ClientSecretKey   = "http.client_secret"
	ClientTokenTTLKey = "http.client_token_ttl"
	KauthClientIDKey  = "kauth.client_id"
	KauthBundleIDKey  = "kauth.bundle_id"
	KauthTokenURLKey  = "kauth.token_url"
	EventsEnabledKey  = "events.enabled"
)

// EnvPrefix prefixes every environment variable, e.g. SSOAGENT_HTTP_CLIENT_SECRET
const EnvPrefix = "SSOAGENT"

type Config struct {
	Phase       string `mapstructure:"phase" validate:"required"`
	AccessGroup string `mapstructure:"access_group" validate:"required"`

	Redis struct {
		URL string `mapstructure:"url" validate:"required,url"`
	} `mapstructure:"redis"`

	Prefs struct {
		Backend      string `mapstructure:"backend" validate:"oneof=file redis"`
		Path         string `mapstructure:"path"`
		Installation string `mapstructure:"installation" validate:"required_if=Backend redis"`
	} `mapstructure:"prefs"`

	HTTP struct {
		Addr           string        `mapstructure:"addr" validate:"required"`
		ClientSecret   string        `mapstructure:"client_secret"`
		ClientTokenTTL time.Duration `mapstructure:"client_token_ttl" validate:"gte=0"`
	} `mapstructure:"http"`

	Kauth struct {
		ClientID string `mapstructure:"client_id"`
		BundleID string `mapstructure:"bundle_id"`
		TokenURL string `mapstructure:"token_url" validate:"omitempty,url"`
	} `mapstructure:"kauth"`

	Events struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"events"`
}

// SetDefaults registers default values on v. Keys without a meaningful
// default are registered empty so Unmarshal picks them up from the environment.
func SetDefaults(v *viper.Viper) {
	for _, key := range []string{
		AccessGroupKey,
		PrefsPathKey,
		InstallationKey,
		ClientSecretKey,
		KauthClientIDKey,
		KauthBundleIDKey,
		KauthTokenURLKey,
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault(PhaseKey, string(core.PhaseProduction))
	v.SetDefault(RedisURLKey, "redis://localhost:6379/0")
	v.SetDefault(PrefsBackendKey, "file")
	v.SetDefault(HTTPAddrKey, "127.0.0.1:9000")
	v.SetDefault(ClientTokenTTLKey, 24*time.Hour)
	v.SetDefault(EventsEnabledKey, false)
}

// BindEnv makes v read SSOAGENT_* variables, with dots in keys mapped to
// underscores
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := core.ParsePhase(cfg.Phase); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// DeploymentPhase returns the validated phase
func (c *Config) DeploymentPhase() core.Phase {
	phase, _ := core.ParsePhase(c.Phase)
	return phase
}
