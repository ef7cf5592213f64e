package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.URLTemplate != DefaultURLTemplate {
		t.Errorf("URLTemplate = %q, want default", cfg.URLTemplate)
	}
	if !strings.Contains(cfg.URLTemplate, "sortBy=DATE_DESC") || !strings.Contains(cfg.URLTemplate, "format=json") {
		t.Errorf("URLTemplate %q should sort by date and request JSON", cfg.URLTemplate)
	}
	if cfg.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.PageSize)
	}
	if cfg.PageCeiling != 2162 {
		t.Errorf("PageCeiling = %d, want 2162", cfg.PageCeiling)
	}
	if cfg.MaxConcurrency != 15 {
		t.Errorf("MaxConcurrency = %d, want 15", cfg.MaxConcurrency)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.OutputPath != "cbp_rulings_data.csv" {
		t.Errorf("OutputPath = %q, want cbp_rulings_data.csv", cfg.OutputPath)
	}
	if cfg.PushgatewayURL != "" {
		t.Errorf("PushgatewayURL = %q, want empty", cfg.PushgatewayURL)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "empty url",
			modify:  func(c *Config) { c.URLTemplate = "" },
			wantErr: ErrInvalidURLTemplate,
		},
		{
			name:    "url without page placeholder",
			modify:  func(c *Config) { c.URLTemplate = "https://rulings.cbp.gov/api/search?page=1" },
			wantErr: ErrInvalidURLTemplate,
		},
		{
			name:    "non-http url",
			modify:  func(c *Config) { c.URLTemplate = "ftp://rulings.cbp.gov/?page={page}" },
			wantErr: ErrInvalidURLTemplate,
		},
		{
			name:    "zero page size",
			modify:  func(c *Config) { c.PageSize = 0 },
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "negative ceiling",
			modify:  func(c *Config) { c.PageCeiling = -1 },
			wantErr: ErrInvalidPageCeiling,
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.MaxConcurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "empty output",
			modify:  func(c *Config) { c.OutputPath = "" },
			wantErr: ErrInvalidOutputPath,
		},
		{
			name:    "empty user agent",
			modify:  func(c *Config) { c.UserAgent = "" },
			wantErr: ErrInvalidUserAgent,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad pushgateway url",
			modify:  func(c *Config) { c.PushgatewayURL = "not a url" },
			wantErr: ErrInvalidPushgatewayURL,
		},
		{
			name:   "pushgateway url",
			modify: func(c *Config) { c.PushgatewayURL = "http://localhost:9091" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	content := `
url: "http://localhost:8080/api/search?page={page}&pageSize={pageSize}"
workers: 4
page_ceiling: 10
timeout: 5s
output: out/rulings.csv
pretty: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.URLTemplate != "http://localhost:8080/api/search?page={page}&pageSize={pageSize}" {
		t.Errorf("URLTemplate = %q", cfg.URLTemplate)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("MaxConcurrency = %d, want 4", cfg.MaxConcurrency)
	}
	if cfg.PageCeiling != 10 {
		t.Errorf("PageCeiling = %d, want 10", cfg.PageCeiling)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", cfg.Timeout)
	}
	if cfg.OutputPath != "out/rulings.csv" {
		t.Errorf("OutputPath = %q", cfg.OutputPath)
	}
	if !cfg.Pretty {
		t.Error("Pretty should be true")
	}

	// Keys absent from the file keep their defaults.
	if cfg.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", cfg.PageSize, DefaultPageSize)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, DefaultLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := NewConfig().LoadFile(filepath.Join(dir, "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadFile() = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("workers: [1, 2"), 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		err := NewConfig().LoadFile(path)
		if err == nil || errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadFile() = %v, want parse error", err)
		}
	})
}

func TestConfigValidate_NormalizesLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"WARN", "warn"},
		{"warning", "warn"},
		{" Debug ", "debug"},
		{"ERROR", "error"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg := NewConfig()
			cfg.LogLevel = tt.input

			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if cfg.LogLevel != tt.expected {
				t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, tt.expected)
			}
		})
	}
}

func TestApplyEnv_UppercaseLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "WARN")

	cfg := NewConfig()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvPushgatewayURL, "http://pushgateway:9091")
	t.Setenv(EnvUserAgent, "")

	cfg := NewConfig()
	cfg.ApplyEnv()

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.PushgatewayURL != "http://pushgateway:9091" {
		t.Errorf("PushgatewayURL = %q", cfg.PushgatewayURL)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("empty env var should keep UserAgent, got %q", cfg.UserAgent)
	}
}
