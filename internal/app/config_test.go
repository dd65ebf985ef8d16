package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("REDIS_URL", "redis://cache")
	t.Setenv("PORT", "9000")

	cfg := &Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://db", cfg.DatabaseURL)
	assert.Equal(t, "redis://cache", cfg.RedisURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestApplyPlatformDefaults_ExplicitWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "9000")

	cfg := &Config{Addr: "127.0.0.1:8081", DatabaseURL: "postgres://explicit"}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit", cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "Valid", modify: func(*Config) {}},
		{
			name:    "MissingCatalog",
			modify:  func(c *Config) { c.CatalogURL = "" },
			wantErr: "catalog URL is required",
		},
		{
			name:    "BadLocale",
			modify:  func(c *Config) { c.Locale = "not a locale!" },
			wantErr: "parse locale",
		},
		{
			name:    "NonPositiveMaxAge",
			modify:  func(c *Config) { c.Persistence.CartMaxAge = 0 },
			wantErr: "max ages must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://catalog")
			tt.modify(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocaleTag(t *testing.T) {
	cfg := &Config{Locale: "de"}
	assert.Equal(t, language.German, cfg.LocaleTag())

	cfg.Locale = "???"
	assert.Equal(t, language.English, cfg.LocaleTag())
}
