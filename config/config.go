// Package config loads the gateway's environment-variable configuration
// per spec.md §6, using viper the way the corpus's cmd layer loads its
// own config before handing it to container.Setup.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        int    `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RequireHMAC  bool `mapstructure:"REQUIRE_HMAC"`
	RequireAuth  bool `mapstructure:"REQUIRE_AUTH"`
	RequireHTTPS bool `mapstructure:"REQUIRE_HTTPS"`
	TrustProxy   bool `mapstructure:"TRUST_PROXY"`

	AllowedIPs         string `mapstructure:"ALLOWED_IPS"`
	IPAllowlistEnabled bool   `mapstructure:"IP_ALLOWLIST_ENABLED"`

	HMACWindowMS int `mapstructure:"HMAC_WINDOW_MS"`

	RateLimitWindowMS int `mapstructure:"RATE_LIMIT_WINDOW_MS"`
	RateLimitMax      int `mapstructure:"RATE_LIMIT_MAX"`

	BodyLimit int64 `mapstructure:"BODY_LIMIT"`

	AdminBasePath      string `mapstructure:"ADMIN_BASE_PATH"`
	AdminBootstrapUser string `mapstructure:"ADMIN_BOOTSTRAP_USER"`
	AdminBootstrapPass string `mapstructure:"ADMIN_BOOTSTRAP_PASSWORD"`
	AdminSessionSecret string `mapstructure:"ADMIN_SESSION_SECRET"`

	APNSMaxListeners int `mapstructure:"APNS_MAX_LISTENERS"`

	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`
	JaegerEndpoint string `mapstructure:"JAEGER_ENDPOINT"`
}

// Load reads configuration purely from the environment, applying the
// defaults spec.md §6 documents.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", 3000)
	v.SetDefault("REQUIRE_HMAC", true)
	v.SetDefault("REQUIRE_AUTH", false)
	v.SetDefault("REQUIRE_HTTPS", true)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("IP_ALLOWLIST_ENABLED", false)
	v.SetDefault("HMAC_WINDOW_MS", 300000)
	v.SetDefault("RATE_LIMIT_WINDOW_MS", 60000)
	v.SetDefault("RATE_LIMIT_MAX", 120)
	v.SetDefault("BODY_LIMIT", 200*1024)
	v.SetDefault("APNS_MAX_LISTENERS", 75)
	v.SetDefault("TRACING_ENABLED", true)
	v.SetDefault("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")

	for _, key := range []string{
		"PORT", "DATABASE_URL", "REQUIRE_HMAC", "REQUIRE_AUTH", "REQUIRE_HTTPS",
		"TRUST_PROXY", "ALLOWED_IPS", "IP_ALLOWLIST_ENABLED", "HMAC_WINDOW_MS",
		"RATE_LIMIT_WINDOW_MS", "RATE_LIMIT_MAX", "BODY_LIMIT", "ADMIN_BASE_PATH",
		"ADMIN_BOOTSTRAP_USER", "ADMIN_BOOTSTRAP_PASSWORD", "ADMIN_SESSION_SECRET",
		"APNS_MAX_LISTENERS", "TRACING_ENABLED", "JAEGER_ENDPOINT",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) HMACWindow() time.Duration {
	return time.Duration(c.HMACWindowMS) * time.Millisecond
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowMS) * time.Millisecond
}

// AllowedIPSet splits ALLOWED_IPS (comma-separated) into a lookup set.
func (c Config) AllowedIPSet() map[string]struct{} {
	out := map[string]struct{}{}
	for _, ip := range strings.Split(c.AllowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			out[ip] = struct{}{}
		}
	}
	return out
}
