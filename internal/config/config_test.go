package config

import (
	"testing"
	"time"

	"github.com/kakao/partnersso/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	v := newViper()
	v.Set(AccessGroupKey, "TEAM.com.kakao.sso")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseProduction, cfg.DeploymentPhase())
	assert.Equal(t, "file", cfg.Prefs.Backend)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.HTTP.ClientTokenTTL)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set(AccessGroupKey, "TEAM.com.kakao.sso")
	v.Set(PhaseKey, "sandbox")
	v.Set(PrefsBackendKey, "redis")
	v.Set(InstallationKey, "install-1")
	v.Set(ClientTokenTTLKey, "30m")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseSandbox, cfg.DeploymentPhase())
	assert.Equal(t, 30*time.Minute, cfg.HTTP.ClientTokenTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]func(v *viper.Viper){
		"missing access group": func(v *viper.Viper) {},
		"unknown phase": func(v *viper.Viper) {
			v.Set(AccessGroupKey, "g")
			v.Set(PhaseKey, "staging")
		},
		"unknown prefs backend": func(v *viper.Viper) {
			v.Set(AccessGroupKey, "g")
			v.Set(PrefsBackendKey, "sqlite")
		},
		"redis prefs without installation": func(v *viper.Viper) {
			v.Set(AccessGroupKey, "g")
			v.Set(PrefsBackendKey, "redis")
		},
	}

	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			setup(v)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SSOAGENT_ACCESS_GROUP", "TEAM.com.kakao.sso")
	t.Setenv("SSOAGENT_HTTP_CLIENT_SECRET", "env-secret")
	t.Setenv("SSOAGENT_KAUTH_CLIENT_ID", "app-key")
	t.Setenv("SSOAGENT_KAUTH_BUNDLE_ID", "com.example.app")
	t.Setenv("SSOAGENT_KAUTH_TOKEN_URL", "http://127.0.0.1:8080/oauth/token")
	t.Setenv("SSOAGENT_PREFS_BACKEND", "redis")
	t.Setenv("SSOAGENT_PREFS_INSTALLATION", "install-1")
	t.Setenv("SSOAGENT_PREFS_PATH", "/tmp/prefs.json")
	t.Setenv("SSOAGENT_PHASE", "Cbt")

	v := newViper()
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "TEAM.com.kakao.sso", cfg.AccessGroup)
	assert.Equal(t, "env-secret", cfg.HTTP.ClientSecret)
	assert.Equal(t, "app-key", cfg.Kauth.ClientID)
	assert.Equal(t, "com.example.app", cfg.Kauth.BundleID)
	assert.Equal(t, "http://127.0.0.1:8080/oauth/token", cfg.Kauth.TokenURL)
	assert.Equal(t, "redis", cfg.Prefs.Backend)
	assert.Equal(t, "install-1", cfg.Prefs.Installation)
	assert.Equal(t, "/tmp/prefs.json", cfg.Prefs.Path)
	assert.Equal(t, core.PhaseCbt, cfg.DeploymentPhase())
}
