package zasqua

import (
	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/config"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	backend   string // "bleve" or "redis"
	addrs     []string
	password  string
	path      string
	index     string
	prefix    string
	pageSize  int
	guard     bool
	threshold int
	labels    map[string]string
	logger    *zap.Logger
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		backend: config.BackendBleve,
		index:   config.DefaultIndexName,
		prefix:  config.DefaultKeyPrefix,
		guard:   true,
	}
}

// WithRedis stores the index in Redis 8+ through its query engine.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.backend = config.BackendRedis
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithBleve keeps the index in an embedded bleve directory. An empty path
// keeps it in memory.
func WithBleve(path string) Option {
	return func(c *clientConfig) {
		c.backend = config.BackendBleve
		c.path = path
	}
}

// WithIndex names the index and the key prefix of its documents.
func WithIndex(name, prefix string) Option {
	return func(c *clientConfig) {
		c.index = name
		c.prefix = prefix
	}
}

// WithPageSize sets the number of results per page, at most 100.
func WithPageSize(n int) Option {
	return func(c *clientConfig) {
		c.pageSize = n
	}
}

// WithCostGuard toggles the prompt before broad filter-only queries.
// A non-positive threshold keeps the default.
func WithCostGuard(enabled bool, threshold int) Option {
	return func(c *clientConfig) {
		c.guard = enabled
		c.threshold = threshold
	}
}

// WithLevelLabels sets the display names of description levels.
func WithLevelLabels(labels map[string]string) Option {
	return func(c *clientConfig) {
		c.labels = labels
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
