// Package config holds the keepalive runtime configuration.
// A Config is assembled once from flags (optionally seeded from a YAML
// file) and never mutated after Validate succeeds.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names accepted by --engine.
const (
	EngineRod        = "rod"
	EnginePlaywright = "playwright"
)

// Config is the full runtime configuration.
type Config struct {
	// URL is the page to keep alive.
	URL string `yaml:"url"`

	// Interval is the time between refresh cycles. In the YAML file it is
	// written as a duration string, e.g. "60s" or "5m".
	Interval time.Duration `yaml:"-"`

	// CacheBust appends a fresh marker parameter on every refresh so
	// intermediate caches never serve a stale copy.
	CacheBust bool `yaml:"cache_bust"`

	// AlwaysReset returns to the original URL each cycle, discarding any
	// navigation the user performed in the page.
	AlwaysReset bool `yaml:"always_reset"`

	// OnlyIfIdle delays each refresh until no page activity has been
	// observed for a full interval.
	OnlyIfIdle bool `yaml:"only_if_idle"`

	// Engine selects the automation backend.
	Engine string `yaml:"engine"`

	// Headless launches the browser without a visible window.
	Headless bool `yaml:"headless"`

	// CDPPort, when non-zero, exposes the Chrome DevTools Protocol
	// endpoint on that local port.
	CDPPort int `yaml:"cdp_port"`

	// AutoInstall enables the install-and-retry flow when the engine
	// driver or browser binary is missing.
	AutoInstall bool `yaml:"auto_install"`

	// Yes auto-confirms install prompts.
	Yes bool `yaml:"yes"`

	// NetLogPath, when set, records network events to this file.
	NetLogPath string `yaml:"net_log"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		Interval:  60 * time.Second,
		CacheBust: true,
		Engine:    EngineRod,
	}
}

// fileConfig mirrors Config for YAML decoding; durations are strings.
type fileConfig struct {
	Config   `yaml:",inline"`
	Interval string `yaml:"interval"`
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	fc := fileConfig{Config: cfg}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg = fc.Config
	if fc.Interval != "" {
		d, err := time.ParseDuration(fc.Interval)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: interval: %w", path, err)
		}
		cfg.Interval = d
	}
	return cfg, nil
}

// Validate checks the configuration before any browser is launched.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("a URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", c.URL)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	switch c.Engine {
	case EngineRod, EnginePlaywright:
	default:
		return fmt.Errorf("unknown engine %q (supported: %s, %s)", c.Engine, EngineRod, EnginePlaywright)
	}
	if c.CDPPort != 0 && (c.CDPPort < 1 || c.CDPPort > 65535) {
		return fmt.Errorf("cdp port %d out of range [1,65535]", c.CDPPort)
	}
	return nil
}
