package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Fetch modes
const (
	FetchModeDirect = "direct" // colly straight to the site
	FetchModeProxy  = "proxy"  // third-party fetch proxy
	FetchModeRender = "render" // headless browser
)

// Config represents the service configuration.
// Values come from an optional YAML file and are overridden by environment variables.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Site   SiteConfig   `yaml:"site"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
}

type SiteConfig struct {
	Origin     string `yaml:"origin" env:"SITE_ORIGIN" env-default:"https://www.zebis.ch"`
	SearchPath string `yaml:"search_path" env:"SEARCH_PATH" env-default:"/suche"`
}

type FetchConfig struct {
	Mode           string        `yaml:"mode" env:"FETCH_MODE" env-default:"direct" env-description:"direct, proxy or render"`
	Timeout        time.Duration `yaml:"timeout" env:"FETCH_TIMEOUT" env-default:"20s"`
	UserAgent      string        `yaml:"user_agent" env:"FETCH_USER_AGENT"`
	AcceptLanguage string        `yaml:"accept_language" env:"FETCH_ACCEPT_LANGUAGE"`
	ProxyEndpoint  string        `yaml:"proxy_endpoint" env:"FETCH_PROXY_ENDPOINT"`
	// Secret, only ever read from the environment
	ProxyAPIKey string `yaml:"-" env:"FETCH_PROXY_API_KEY"`
	BrowserBin  string `yaml:"browser_bin" env:"FETCH_BROWSER_BIN"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" env-description:"json or console"`
}

// LoadConfig loads configuration from a YAML file (if path is not empty) and the environment
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cannot be expressed with struct tags
func (c *Config) Validate() error {
	switch c.Fetch.Mode {
	case FetchModeDirect, FetchModeRender:
	case FetchModeProxy:
		if c.Fetch.ProxyEndpoint == "" {
			return fmt.Errorf("fetch mode %q requires FETCH_PROXY_ENDPOINT", FetchModeProxy)
		}
		if c.Fetch.ProxyAPIKey == "" {
			return fmt.Errorf("fetch mode %q requires FETCH_PROXY_API_KEY", FetchModeProxy)
		}
	default:
		return fmt.Errorf("unknown fetch mode %q", c.Fetch.Mode)
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if !strings.HasPrefix(c.Site.Origin, "http://") && !strings.HasPrefix(c.Site.Origin, "https://") {
		return fmt.Errorf("site origin must be an http(s) URL, got %q", c.Site.Origin)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("port must not be empty")
	}

	return nil
}

// SearchURL returns the base URL of the site's search page
func (c *Config) SearchURL() string {
	return strings.TrimSuffix(c.Site.Origin, "/") + "/" + strings.TrimPrefix(c.Site.SearchPath, "/")
}
