package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"gopkg.in/yaml.v3"
)

// Config represents the complete proxy configuration
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Defaults QueryDefaults  `yaml:"defaults"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// UpstreamConfig describes the arXiv API the proxy forwards to
type UpstreamConfig struct {
	APIEndpoint    string `yaml:"api_endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 = no client timeout
	UserAgent      string `yaml:"user_agent"`
}

// QueryDefaults are applied to optional query parameters the caller omits
type QueryDefaults struct {
	SortBy     string `yaml:"sort_by"`
	SortOrder  string `yaml:"sort_order"`
	Start      int    `yaml:"start"`
	MaxResults int    `yaml:"max_results"`
}

// ServerConfig configures the local development server
type ServerConfig struct {
	Path      string `yaml:"path"`
	LocalAddr string `yaml:"local_addr"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Manager handles configuration loading and management
type Manager struct {
	s3Client s3iface.S3API
}

// NewManager creates a new configuration manager backed by S3 in region
func NewManager(region string) (*Manager, error) {
	if region == "" {
		region = "us-east-1"
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewManagerWithClient(s3.New(sess)), nil
}

// NewManagerWithClient creates a manager around an existing S3 client
func NewManagerWithClient(client s3iface.S3API) *Manager {
	return &Manager{s3Client: client}
}

// LoadFromS3 loads configuration from S3
func (m *Manager) LoadFromS3(ctx context.Context, bucket, key string) (*Config, error) {
	if m.s3Client == nil {
		return nil, fmt.Errorf("no S3 client configured")
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	result, err := m.s3Client.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}

	return m.parseConfig(data)
}

// LoadFromFile loads configuration from a local YAML file
func (m *Manager) LoadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return m.parseConfig(data)
}

// LoadFromBytes loads configuration from byte data
func (m *Manager) LoadFromBytes(data []byte) (*Config, error) {
	return m.parseConfig(data)
}

// parseConfig overlays YAML data onto the default configuration, so a
// document only needs the keys it changes.
func (m *Manager) parseConfig(data []byte) (*Config, error) {
	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides configuration values from environment variables
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("ARXIV_API_ENDPOINT"); v != "" {
		c.Upstream.APIEndpoint = v
	}
	if v := getenv("ARXIV_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ARXIV_TIMEOUT_SECONDS %q: %w", v, err)
		}
		c.Upstream.TimeoutSeconds = seconds
	}
	if v := getenv("ARXIV_USER_AGENT"); v != "" {
		c.Upstream.UserAgent = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOCAL_ADDR"); v != "" {
		c.Server.LocalAddr = v
	}
	return c.Validate()
}

// Validate checks the configuration for values the proxy cannot run with
func (c *Config) Validate() error {
	if c.Upstream.APIEndpoint == "" {
		return fmt.Errorf("upstream.api_endpoint is required")
	}

	endpoint, err := url.Parse(c.Upstream.APIEndpoint)
	if err != nil {
		return fmt.Errorf("invalid upstream.api_endpoint: %w", err)
	}
	if !endpoint.IsAbs() || endpoint.Host == "" {
		return fmt.Errorf("upstream.api_endpoint must be an absolute URL, got '%s'", c.Upstream.APIEndpoint)
	}

	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds cannot be negative")
	}

	if c.Defaults.SortBy == "" {
		return fmt.Errorf("defaults.sort_by is required")
	}
	if c.Defaults.SortOrder == "" {
		return fmt.Errorf("defaults.sort_order is required")
	}
	if c.Defaults.Start < 0 {
		return fmt.Errorf("defaults.start cannot be negative")
	}
	if c.Defaults.MaxResults < 0 {
		return fmt.Errorf("defaults.max_results cannot be negative")
	}

	return nil
}

// GetDefaultConfig returns a default configuration for fallback scenarios
func GetDefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			APIEndpoint:    "https://export.arxiv.org/api/query",
			TimeoutSeconds: 0,
			UserAgent:      "arxiv-query-proxy/1.0",
		},
		Defaults: QueryDefaults{
			SortBy:     "submittedDate",
			SortOrder:  "descending",
			Start:      0,
			MaxResults: 10,
		},
		Server: ServerConfig{
			Path:      "/api/arxiv-query",
			LocalAddr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}
