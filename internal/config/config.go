package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neogranadina/zasqua/internal/domain/search/request"
)

// Index backends.
const (
	BackendRedis = "redis"
	BackendBleve = "bleve"
)

// Index naming defaults.
const (
	DefaultIndexName = "zasqua:descriptions"
	DefaultKeyPrefix = "zasqua:desc:"
)

// Config holds the zasqua server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	CostGuard CostGuardConfig `yaml:"cost_guard"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotating file sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig holds JSON API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexConfig holds search index settings.
type IndexConfig struct {
	Backend            string   `yaml:"backend"` // redis, bleve (default: bleve)
	Addrs              []string `yaml:"addrs"`
	Password           string   `yaml:"password"`
	Name               string   `yaml:"name"`
	KeyPrefix          string   `yaml:"key_prefix"`
	Path               string   `yaml:"path"` // bleve only; empty keeps the index in memory
	PageSize           int      `yaml:"page_size"`
	GlobalFacetsTTLSec int      `yaml:"global_facets_ttl_sec"` // 0 = never expires
	ReadinessTimeout   int      `yaml:"readiness_timeout_sec"`
	BatchSize          int      `yaml:"batch_size"`
}

// CostGuardConfig holds the broad filter-only query prompt settings.
type CostGuardConfig struct {
	Enabled   *bool `yaml:"enabled"` // default: true
	Threshold int   `yaml:"threshold"`
}

// CatalogConfig holds the catalog API source settings.
type CatalogConfig struct {
	APIURL   string  `yaml:"api_url"`
	RPS      float64 `yaml:"rps"`
	PageSize int     `yaml:"page_size"`
}

// UIConfig holds page settings.
type UIConfig struct {
	LevelLabels       string `yaml:"level_labels"` // JSON object, code -> label
	BasePath          string `yaml:"base_path"`
	DebounceMS        int    `yaml:"debounce_ms"`
	ApproximateTotals bool   `yaml:"approximate_totals"`
}

// GuardEnabled reports whether the cost guard is on.
func (c CostGuardConfig) GuardEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GlobalFacetsTTL returns the global facet cache lifetime.
func (c IndexConfig) GlobalFacetsTTL() time.Duration {
	return time.Duration(c.GlobalFacetsTTLSec) * time.Second
}

// Debounce returns the date range input debounce.
func (c UIConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Index.Backend == "" {
		c.Index.Backend = BackendBleve
	}
	if c.Index.Name == "" {
		c.Index.Name = DefaultIndexName
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = DefaultKeyPrefix
	}
	if c.Index.PageSize <= 0 {
		c.Index.PageSize = 20
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 500
	}
	if c.CostGuard.Threshold <= 0 {
		c.CostGuard.Threshold = 10000
	}
	if c.Catalog.RPS <= 0 {
		c.Catalog.RPS = 2
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 500
	}
	if c.UI.BasePath == "" {
		c.UI.BasePath = "/buscar/"
	}
	if c.UI.DebounceMS <= 0 {
		c.UI.DebounceMS = 300
	}
	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB <= 0 {
			c.Logging.MaxSizeMB = 100
		}
		if c.Logging.MaxBackups <= 0 {
			c.Logging.MaxBackups = 5
		}
		if c.Logging.MaxAgeDays <= 0 {
			c.Logging.MaxAgeDays = 30
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Index.Backend {
	case BackendRedis:
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("index.addrs is required for the redis backend")
		}
	case BackendBleve:
	default:
		return fmt.Errorf("index.backend must be %q or %q, got %q", BackendRedis, BackendBleve, c.Index.Backend)
	}
	if c.Index.PageSize > request.MaxLimit {
		return fmt.Errorf("index.page_size must not exceed %d, got %d", request.MaxLimit, c.Index.PageSize)
	}
	if c.Index.GlobalFacetsTTLSec < 0 {
		return fmt.Errorf("index.global_facets_ttl_sec must not be negative, got %d", c.Index.GlobalFacetsTTLSec)
	}
	if !strings.HasPrefix(c.UI.BasePath, "/") || !strings.HasSuffix(c.UI.BasePath, "/") {
		return fmt.Errorf("ui.base_path must start and end with \"/\", got %q", c.UI.BasePath)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
