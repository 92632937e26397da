package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	// EnvPrefix prefixes every environment override, e.g.
	// BENCHVIZ_RESULTS_LOCATION for results.location.
	EnvPrefix = "BENCHVIZ"

	// LegacyResultsEnv is the variable older tooling used to point at the
	// results directory. It is honored when results.location is unset.
	LegacyResultsEnv = "BENCHMARK_RESULTS"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultConcurrency is the default number of logs parsed in parallel.
	DefaultConcurrency = 4

	// DefaultListen is the default dashboard listen address.
	DefaultListen = ":8080"

	// DefaultBatchSize is the default number of versions per throughput
	// bucket.
	DefaultBatchSize = 100

	// DefaultOutputDir is the default report output directory.
	DefaultOutputDir = "./report"

	// DefaultChartFormat is the default chart image format.
	DefaultChartFormat = "png"

	// DefaultUploadPrefix is the default S3 key prefix for reports.
	DefaultUploadPrefix = "reports"
)

// ErrConfiguration is returned when the configuration is incomplete or
// inconsistent.
var ErrConfiguration = errors.New("invalid configuration")

// Config is the root configuration for benchviz.
type Config struct {
	Global    GlobalConfig    `yaml:"global" mapstructure:"global"`
	Results   ResultsConfig   `yaml:"results" mapstructure:"results"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ResultsConfig describes where benchmark logs are read from.
type ResultsConfig struct {
	// Location is a log file, a directory of logs, or an s3://bucket/prefix
	// URL.
	Location    string         `yaml:"location" mapstructure:"location"`
	Concurrency int            `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	S3          S3ClientConfig `yaml:"s3,omitempty" mapstructure:"s3"`
}

// S3ClientConfig contains connection settings for S3-compatible storage.
type S3ClientConfig struct {
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// DashboardConfig contains dashboard API server settings.
type DashboardConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
	Auth        AuthConfig      `yaml:"auth,omitempty" mapstructure:"auth"`
	BatchSize   int64           `yaml:"batch_size,omitempty" mapstructure:"batch_size"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AuthConfig contains dashboard authentication settings.
type AuthConfig struct {
	Basic BasicAuthConfig `yaml:"basic,omitempty" mapstructure:"basic"`
}

// BasicAuthConfig configures username/password authentication.
type BasicAuthConfig struct {
	Enabled bool            `yaml:"enabled" mapstructure:"enabled"`
	Users   []BasicAuthUser `yaml:"users,omitempty" mapstructure:"users"`
}

// BasicAuthUser defines a basic auth user. Password holds a bcrypt hash.
type BasicAuthUser struct {
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// ReportConfig contains settings for rendered reports and charts.
type ReportConfig struct {
	OutputDir   string         `yaml:"output_dir" mapstructure:"output_dir"`
	BatchSize   int64          `yaml:"batch_size,omitempty" mapstructure:"batch_size"`
	ChartFormat string         `yaml:"chart_format,omitempty" mapstructure:"chart_format"`
	Upload      S3UploadConfig `yaml:"upload,omitempty" mapstructure:"upload"`
}

// S3UploadConfig configures publishing rendered reports to S3.
type S3UploadConfig struct {
	S3ClientConfig `yaml:",inline" mapstructure:",squash"`

	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Bucket       string `yaml:"bucket" mapstructure:"bucket"`
	Prefix       string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	StorageClass string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL          string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// envKeys lists every scalar key that can be overridden from the
// environment. viper only applies AutomaticEnv to keys it already knows.
var envKeys = []string{
	"global.log_level",
	"results.concurrency",
	"results.s3.endpoint_url",
	"results.s3.region",
	"results.s3.access_key_id",
	"results.s3.secret_access_key",
	"results.s3.force_path_style",
	"dashboard.listen",
	"dashboard.cors_origins",
	"dashboard.rate_limit.enabled",
	"dashboard.rate_limit.requests_per_minute",
	"dashboard.auth.basic.enabled",
	"dashboard.batch_size",
	"report.output_dir",
	"report.batch_size",
	"report.chart_format",
	"report.upload.enabled",
	"report.upload.endpoint_url",
	"report.upload.region",
	"report.upload.bucket",
	"report.upload.prefix",
	"report.upload.access_key_id",
	"report.upload.secret_access_key",
	"report.upload.force_path_style",
	"report.upload.storage_class",
	"report.upload.acl",
}

// Load reads the configuration. path may be empty, in which case only the
// environment is consulted. Environment variables take precedence over the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.BindEnv("results.location", EnvPrefix+"_RESULTS_LOCATION", LegacyResultsEnv); err != nil {
		return nil, fmt.Errorf("binding results.location: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Results.Concurrency <= 0 {
		c.Results.Concurrency = DefaultConcurrency
	}

	if c.Dashboard.Listen == "" {
		c.Dashboard.Listen = DefaultListen
	}

	if c.Dashboard.BatchSize <= 0 {
		c.Dashboard.BatchSize = DefaultBatchSize
	}

	if c.Report.OutputDir == "" {
		c.Report.OutputDir = DefaultOutputDir
	}

	if c.Report.BatchSize <= 0 {
		c.Report.BatchSize = DefaultBatchSize
	}

	if c.Report.ChartFormat == "" {
		c.Report.ChartFormat = DefaultChartFormat
	}

	if c.Report.Upload.Prefix == "" {
		c.Report.Upload.Prefix = DefaultUploadPrefix
	}
}

// Validate checks the configuration for errors. It performs no I/O.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Results.Location) == "" {
		return fmt.Errorf(
			"%w: results location is required (set results.location, %s_RESULTS_LOCATION or %s)",
			ErrConfiguration, EnvPrefix, LegacyResultsEnv,
		)
	}

	switch c.Report.ChartFormat {
	case "png", "svg":
	default:
		return fmt.Errorf("%w: unsupported chart format %q", ErrConfiguration, c.Report.ChartFormat)
	}

	if c.Dashboard.RateLimit.Enabled && c.Dashboard.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("%w: dashboard.rate_limit.requests_per_minute must be positive", ErrConfiguration)
	}

	if err := c.Dashboard.Auth.Basic.Validate(); err != nil {
		return err
	}

	if c.Report.Upload.Enabled && c.Report.Upload.Bucket == "" {
		return fmt.Errorf("%w: report.upload.bucket is required when upload is enabled", ErrConfiguration)
	}

	return nil
}

// Validate checks that every user has a name and a bcrypt password hash.
func (b *BasicAuthConfig) Validate() error {
	if !b.Enabled {
		return nil
	}

	if len(b.Users) == 0 {
		return fmt.Errorf("%w: basic auth enabled without users", ErrConfiguration)
	}

	seen := make(map[string]struct{}, len(b.Users))

	for i, u := range b.Users {
		if u.Username == "" {
			return fmt.Errorf("%w: basic auth user %d: username is required", ErrConfiguration, i)
		}

		if _, exists := seen[u.Username]; exists {
			return fmt.Errorf("%w: basic auth user %d: duplicate username %q", ErrConfiguration, i, u.Username)
		}

		seen[u.Username] = struct{}{}

		if _, err := bcrypt.Cost([]byte(u.Password)); err != nil {
			return fmt.Errorf("%w: basic auth user %q: password must be a bcrypt hash: %v",
				ErrConfiguration, u.Username, err)
		}
	}

	return nil
}
