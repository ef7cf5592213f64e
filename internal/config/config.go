package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/rulings-harvester/pkg/logging"
	"github.com/Sternrassler/rulings-harvester/pkg/output"
	"github.com/Sternrassler/rulings-harvester/pkg/pagination"
	"github.com/go-playground/validator/v10"
)

// Default configuration values.
const (
	// DefaultURLTemplate queries every collection, newest rulings first.
	// {page} and {pageSize} are substituted per request.
	DefaultURLTemplate = "https://rulings.cbp.gov/api/search?term=a*&collection=ALL&fromDate=1980-01-01&toDate=2025-03-14&pageSize={pageSize}&page={page}&sortBy=DATE_DESC&format=json"

	// DefaultPageSize is the largest page size the search API accepts.
	DefaultPageSize = pagination.DefaultPageSize

	// DefaultPageCeiling covers the full data set: 216170 hits / 100 per page, rounded up.
	DefaultPageCeiling = pagination.DefaultPageCeiling

	// DefaultMaxConcurrency is the number of page workers.
	DefaultMaxConcurrency = pagination.DefaultMaxConcurrency

	// DefaultTimeout applies to each page fetch.
	DefaultTimeout = pagination.DefaultTimeout

	// DefaultOutputPath is the CSV file written at the end of a run.
	DefaultOutputPath = output.DefaultPath

	// DefaultUserAgent identifies the harvester in requests.
	DefaultUserAgent = "rulings-harvester/1.0 (+https://github.com/Sternrassler/rulings-harvester)"

	// DefaultLogLevel is the zerolog level name used when none is configured.
	DefaultLogLevel = "info"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel       = "RULINGS_LOG_LEVEL"
	EnvPushgatewayURL = "RULINGS_PUSHGATEWAY_URL"
	EnvUserAgent      = "RULINGS_USER_AGENT"
)

// Config holds all settings of one harvest run.
type Config struct {
	// URLTemplate is the search URL with {page} and optional {pageSize} placeholders.
	URLTemplate string `yaml:"url" validate:"required,startswith=http,contains={page}"`

	PageSize       int           `yaml:"page_size" validate:"gt=0"`
	PageCeiling    int           `yaml:"page_ceiling" validate:"gt=0"`
	MaxConcurrency int           `yaml:"workers" validate:"gt=0"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`

	OutputPath string `yaml:"output" validate:"required"`
	UserAgent  string `yaml:"user_agent" validate:"required"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Pretty   bool   `yaml:"pretty"`

	// PushgatewayURL enables a metrics push at the end of the run when set.
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`

	// MetricsFile enables a textfile metrics export at the end of the run when set.
	MetricsFile string `yaml:"metrics_file"`
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		URLTemplate:    DefaultURLTemplate,
		PageSize:       DefaultPageSize,
		PageCeiling:    DefaultPageCeiling,
		MaxConcurrency: DefaultMaxConcurrency,
		Timeout:        DefaultTimeout,
		OutputPath:     DefaultOutputPath,
		UserAgent:      DefaultUserAgent,
		LogLevel:       DefaultLogLevel,
	}
}

// ApplyEnv overlays values from RULINGS_* environment variables.
// Unset or empty variables leave the current value in place.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		c.PushgatewayURL = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
}

// fieldErrors maps struct fields to the sentinel returned for them.
var fieldErrors = map[string]error{
	"URLTemplate":    ErrInvalidURLTemplate,
	"PageSize":       ErrInvalidPageSize,
	"PageCeiling":    ErrInvalidPageCeiling,
	"MaxConcurrency": ErrInvalidConcurrency,
	"Timeout":        ErrInvalidTimeout,
	"OutputPath":     ErrInvalidOutputPath,
	"UserAgent":      ErrInvalidUserAgent,
	"LogLevel":       ErrInvalidLogLevel,
	"PushgatewayURL": ErrInvalidPushgatewayURL,
}

var validate = validator.New()

// Validate checks the configuration and returns the sentinel error of the
// first invalid field, wrapped with the offending value.
// LogLevel is first normalized with logging.ParseLevel, so "WARN" or
// "warning" become "warn".
func (c *Config) Validate() error {
	if level, err := logging.ParseLevel(c.LogLevel); err == nil {
		c.LogLevel = level.String()
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}

	fe := verrs[0]
	sentinel, ok := fieldErrors[fe.StructField()]
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}
	return fmt.Errorf("%w (got %v)", sentinel, fe.Value())
}
