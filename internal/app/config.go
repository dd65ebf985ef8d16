package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"golang.org/x/text/language"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL URL for cart/favorites payloads and orders; memory when empty" flag:"database-url"`
	RedisURL    string `usage:"Redis URL for persistence markers; memory when empty" flag:"redis-url"`
	CatalogURL  string `default:"http://localhost:5000" usage:"Base URL of the product catalog API" flag:"catalog-url"`
	Locale      string `default:"en" usage:"BCP 47 locale used to group formatted prices"`

	Catalog     CatalogConfig
	Persistence PersistenceConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CatalogConfig controls the catalog API client.
type CatalogConfig struct {
	Timeout time.Duration `default:"10s" usage:"Catalog request timeout" flag:"catalog-timeout"`
}

// PersistenceConfig controls how long persisted collections stay restorable.
type PersistenceConfig struct {
	CartMaxAge      time.Duration `default:"4320h" usage:"Cart marker lifetime" flag:"cart-max-age"`
	FavoritesMaxAge time.Duration `default:"8760h" usage:"Favorites marker lifetime" flag:"favorites-max-age"`
}

// SessionConfig controls the session cookie and the in-memory session cache.
type SessionConfig struct {
	Cookie        string        `default:"sid" usage:"Session cookie name"`
	CookieMaxAge  time.Duration `default:"8760h" usage:"Session cookie lifetime" flag:"session-cookie-max-age"`
	SecureCookie  bool          `default:"false" usage:"Send the session cookie over HTTPS only" flag:"secure-cookie"`
	IdleTTL       time.Duration `default:"30m" usage:"Evict in-memory sessions idle this long" flag:"session-idle-ttl"`
	SweepInterval time.Duration `default:"1m" usage:"Idle session sweep interval" flag:"session-sweep-interval"`
	MaxSessions   int           `default:"100000" usage:"Readiness fails above this many in-memory sessions"`
}

// RateLimitConfig controls the per-session limiter on mutating requests.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max mutating requests per window; 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL, REDIS_URL and PORT.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.CatalogURL == "" {
		return errors.New("catalog URL is required: set STOREFRONT_CATALOG_URL")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return errors.Wrapf(err, "parse locale %q", c.Locale)
	}
	if c.Persistence.CartMaxAge <= 0 || c.Persistence.FavoritesMaxAge <= 0 {
		return errors.New("persistence max ages must be positive")
	}
	return nil
}

// LocaleTag returns the parsed locale, English when it cannot be parsed.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
