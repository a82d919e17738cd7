package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.True(t, cfg.CacheBust)
	assert.Equal(t, EngineRod, cfg.Engine)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keepalive.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: https://example.com/dashboard
interval: 5m
cache_bust: false
only_if_idle: true
engine: playwright
headless: true
cdp_port: 9222
net_log: /tmp/net.jsonl
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Config{
		URL:        "https://example.com/dashboard",
		Interval:   5 * time.Minute,
		OnlyIfIdle: true,
		Engine:     EnginePlaywright,
		Headless:   true,
		CDPPort:    9222,
		NetLogPath: "/tmp/net.jsonl",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keepalive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: https://example.com/\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.True(t, cfg.CacheBust)
	assert.Equal(t, EngineRod, cfg.Engine)
}

func TestLoadBadInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keepalive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.URL = "https://example.com/dashboard"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing URL",
			mutate:  func(c *Config) { c.URL = "" },
			wantErr: "URL is required",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.URL = "ftp://example.com/" },
			wantErr: "scheme",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.URL = "https:///path-only" },
			wantErr: "host",
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Interval = 0 },
			wantErr: "interval",
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.Interval = -time.Second },
			wantErr: "interval",
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Engine = "selenium" },
			wantErr: "unknown engine",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.CDPPort = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.CDPPort = -1 },
			wantErr: "out of range",
		},
		{
			name:   "zero port means disabled",
			mutate: func(c *Config) { c.CDPPort = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
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
