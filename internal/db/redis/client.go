package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/neogranadina/zasqua/internal/db"
)

var _ db.Store = (*Store)(nil)

const readinessPoll = 100 * time.Millisecond

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store serves the catalog index from the Redis 8 Query Engine (FT.* commands).
type Store struct {
	client rueidis.Client
	addrs  []string
}

// NewStore connects to Redis. The search index itself is created later by CreateIndex.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis: addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH and FT.AGGREGATE replies are parsed as RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", strings.Join(cfg.Addrs, ","), err)
	}

	return &Store{client: client, addrs: cfg.Addrs}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls until Redis answers and its query engine lists indexes.
// A server without FT.* commands fails at once with db.ErrUnsupported; other
// failures are retried until timeout and the last one is reported.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readinessPoll)
	defer ticker.Stop()

	var last error
	for {
		select {
		case <-ctx.Done():
			if last == nil {
				last = ctx.Err()
			}
			return fmt.Errorf("redis %s not ready after %s: %w", s.target(), timeout, last)
		case <-ticker.C:
			last = s.ready(ctx)
			if last == nil {
				return nil
			}
			if errors.Is(last, db.ErrUnsupported) {
				return fmt.Errorf("redis %s: %w", s.target(), last)
			}
		}
	}
}

// ready runs one readiness check. A server still loading its dataset answers
// LOADING and is retried like any transient error.
func (s *Store) ready(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	err := s.do(ctx, s.b().Arbitrary(db.OpListIndexes).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, "unknown command"):
		return &db.Error{Op: db.OpListIndexes, Err: fmt.Errorf("%w: %w", db.ErrUnsupported, err)}
	default:
		return &db.Error{Op: db.OpListIndexes, Err: err}
	}
}

func (s *Store) target() string {
	if len(s.addrs) == 0 {
		return "(unknown)"
	}
	return strings.Join(s.addrs, ",")
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server reply containing substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
