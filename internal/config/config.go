// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the edge worker configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Bounds for the per-attempt upstream fetch timeout.
const (
	MinFetchTimeout = 10 * time.Second
	MaxFetchTimeout = 15 * time.Second
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SiteDomain   string `env:"EDGE_SITE_DOMAIN,required"`
	SiteName     string `env:"EDGE_SITE_NAME" envDefault:"My Site"`
	SiteTagline  string `env:"EDGE_SITE_TAGLINE" envDefault:"Notes, essays and updates"`
	ContactEmail string `env:"EDGE_CONTACT_EMAIL"`
	UpstreamURL  string `env:"EDGE_UPSTREAM_URL,required"`

	Env        string `env:"EDGE_ENV" envDefault:"development"`
	ServerHost string `env:"EDGE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"EDGE_SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"EDGE_LOG_LEVEL" envDefault:"info"`

	// Database
	DBDriver string `env:"EDGE_DB_DRIVER" envDefault:"sqlite"` // sqlite or mysql
	DBDSN    string `env:"EDGE_DB_DSN" envDefault:"./data/edgepress.db"`

	// Upstream fetching
	FetchTimeout time.Duration `env:"EDGE_FETCH_TIMEOUT" envDefault:"12s"`
	FetchBackoff time.Duration `env:"EDGE_FETCH_BACKOFF" envDefault:"500ms"`

	// Content rewriting
	DomainAliases    []string `env:"EDGE_DOMAIN_ALIASES" envSeparator:","`
	PassthroughPaths []string `env:"EDGE_PASSTHROUGH_PATHS" envSeparator:"," envDefault:"/wp-login.php,/wp-admin"`

	// Static asset redirects
	FaviconURL string `env:"EDGE_FAVICON_URL"`
	LogoURL    string `env:"EDGE_LOGO_URL"`

	GeoIPDBPath     string   `env:"EDGE_GEOIP_DB_PATH"`
	CleanupSchedule string   `env:"EDGE_CLEANUP_SCHEDULE" envDefault:"30 3 * * *"`
	TrustedOrigins  []string `env:"EDGE_TRUSTED_ORIGINS" envSeparator:","`
	MetricsEnabled  bool     `env:"EDGE_METRICS_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SiteURL returns the canonical public origin of the site.
func (c Config) SiteURL() string {
	return "https://" + c.SiteDomain
}

// UpstreamHost returns the host part of the upstream origin.
func (c Config) UpstreamHost() string {
	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.SiteDomain = strings.TrimSuffix(strings.TrimSpace(cfg.SiteDomain), "/")
	cfg.UpstreamURL = strings.TrimSuffix(strings.TrimSpace(cfg.UpstreamURL), "/")
	cfg.DomainAliases = compact(cfg.DomainAliases)
	cfg.PassthroughPaths = compact(cfg.PassthroughPaths)
	cfg.TrustedOrigins = compact(cfg.TrustedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env parsing alone cannot enforce.
func (c *Config) Validate() error {
	u, err := url.Parse(c.UpstreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("EDGE_UPSTREAM_URL must be an absolute http(s) URL, got %q", c.UpstreamURL)
	}

	switch c.DBDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("EDGE_DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}

	if c.FetchTimeout < MinFetchTimeout || c.FetchTimeout > MaxFetchTimeout {
		return fmt.Errorf("EDGE_FETCH_TIMEOUT must be between %s and %s, got %s",
			MinFetchTimeout, MaxFetchTimeout, c.FetchTimeout)
	}
	if c.FetchBackoff < 0 {
		return fmt.Errorf("EDGE_FETCH_BACKOFF must not be negative")
	}

	if strings.Contains(c.SiteDomain, "/") {
		return fmt.Errorf("EDGE_SITE_DOMAIN must be a bare host name, got %q", c.SiteDomain)
	}
	return nil
}

// compact trims every entry and drops empty ones.
func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
