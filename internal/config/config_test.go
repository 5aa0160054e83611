package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.App.Port)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	assert.False(t, cfg.Auth.HideForeign)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "postgres://postgres:@localhost:5432/ledgerly?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("OWNERSHIP_HIDE_FOREIGN", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins)
	assert.True(t, cfg.Auth.HideForeign)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		cfg := &config.Config{}
		cfg.App.Port = 5000
		cfg.Auth.Secret = "secret"
		cfg.Auth.TokenTTL = time.Hour
		cfg.Auth.BcryptCost = 10
		cfg.Log.Format = "text"

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(*config.Config) {}},
		{name: "MissingSecret", mutate: func(c *config.Config) { c.Auth.Secret = "" }, wantErr: "JWT_SECRET is required"},
		{
			name: "ShortSecretInProduction",
			mutate: func(c *config.Config) {
				c.App.Env = config.EnvProduction
			},
			wantErr: "at least 32 characters",
		},
		{name: "BadPort", mutate: func(c *config.Config) { c.App.Port = 0 }, wantErr: "invalid port"},
		{name: "BadTTL", mutate: func(c *config.Config) { c.Auth.TokenTTL = 0 }, wantErr: "invalid JWT_TTL"},
		{name: "BadCost", mutate: func(c *config.Config) { c.Auth.BcryptCost = 2 }, wantErr: "invalid BCRYPT_COST"},
		{name: "BadLogFormat", mutate: func(c *config.Config) { c.Log.Format = "xml" }, wantErr: "invalid LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
