// Package config builds the immutable server configuration. It is
// constructed once at startup and passed by reference; no other component
// reads ambient environment state directly.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/txn2/mcp-athena/pkg/query"
)

// Bounds and defaults for per-call caps. The bounds match what the engine
// accepts per results page and a one-hour wait ceiling.
const (
	DefaultMaxResults     = 100
	MaxResultsLimit       = 1000
	DefaultMaxWaitSeconds = 300
	MaxWaitSecondsLimit   = 3600

	defaultCatalog   = "AwsDataCatalog"
	defaultWorkgroup = "primary"
)

// Config holds the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Athena AthenaConfig `yaml:"athena"`
}

// ServerConfig configures the MCP server and its transport.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`
	LogLevel  string `yaml:"log_level"` // "debug", "info", "warn", "error"
}

// AthenaConfig configures the engine connection and per-call defaults.
type AthenaConfig struct {
	Region         string           `yaml:"region"`
	Catalog        string           `yaml:"catalog"`
	Database       string           `yaml:"database"`
	Workgroup      string           `yaml:"workgroup"`
	OutputLocation string           `yaml:"output_location"`
	MaxResults     int              `yaml:"max_results"`
	MaxWaitSeconds int              `yaml:"max_wait_seconds"`
	Poll           query.PollConfig `yaml:"poll"`
}

// Load reads configuration from a YAML file, expanding ${VAR} references
// against the environment before parsing.
// The path comes from command line arguments, controlled by the operator.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// FromEnv builds configuration from environment variables alone, for
// deployments without a config file. Recognized variables: AWS_REGION,
// ATHENA_CATALOG, ATHENA_DATABASE, ATHENA_WORKGROUP, ATHENA_OUTPUT_LOCATION,
// ATHENA_MAX_RESULTS, ATHENA_MAX_WAIT_SECONDS.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Athena: AthenaConfig{
			Region:         os.Getenv("AWS_REGION"),
			Catalog:        os.Getenv("ATHENA_CATALOG"),
			Database:       os.Getenv("ATHENA_DATABASE"),
			Workgroup:      os.Getenv("ATHENA_WORKGROUP"),
			OutputLocation: os.Getenv("ATHENA_OUTPUT_LOCATION"),
		},
	}

	var err error
	if cfg.Athena.MaxResults, err = intFromEnv("ATHENA_MAX_RESULTS"); err != nil {
		return nil, err
	}
	if cfg.Athena.MaxWaitSeconds, err = intFromEnv("ATHENA_MAX_WAIT_SECONDS"); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// intFromEnv parses an optional integer environment variable.
func intFromEnv(name string) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return v, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mcp-athena"
	}
	// Version is left empty when unset; the entry point fills it with the
	// build-time version.
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Athena.Catalog == "" {
		cfg.Athena.Catalog = defaultCatalog
	}
	if cfg.Athena.Workgroup == "" {
		cfg.Athena.Workgroup = defaultWorkgroup
	}
	if cfg.Athena.MaxResults == 0 {
		cfg.Athena.MaxResults = DefaultMaxResults
	}
	if cfg.Athena.MaxWaitSeconds == 0 {
		cfg.Athena.MaxWaitSeconds = DefaultMaxWaitSeconds
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Sprintf("server.transport %q is not one of stdio, http", c.Server.Transport))
	}

	if c.Athena.MaxResults < 1 || c.Athena.MaxResults > MaxResultsLimit {
		errs = append(errs, fmt.Sprintf("athena.max_results must be between 1 and %d", MaxResultsLimit))
	}
	if c.Athena.MaxWaitSeconds < 1 || c.Athena.MaxWaitSeconds > MaxWaitSecondsLimit {
		errs = append(errs, fmt.Sprintf("athena.max_wait_seconds must be between 1 and %d", MaxWaitSecondsLimit))
	}
	if c.Athena.OutputLocation != "" && !strings.HasPrefix(c.Athena.OutputLocation, "s3://") {
		errs = append(errs, "athena.output_location must be an s3:// URI")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
