package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/neogranadina/zasqua/internal/domain"
	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
	"github.com/neogranadina/zasqua/internal/version"
)

const (
	// DefaultTimeout is the per-request timeout of the API client.
	DefaultTimeout = 30 * time.Second
	// DefaultRPS is the default request rate against the catalog API.
	DefaultRPS = 2.0
	// DefaultPageSize is the default listing page size.
	DefaultPageSize = 500
	// maxPages stops a listing whose next links never end.
	maxPages = 100000
)

// APISource walks the catalog API listing page by page, following next links.
type APISource struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	pageSize int
	logger   *zap.Logger
}

// Option configures an APISource.
type Option func(*APISource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *APISource) { s.client = c }
}

// WithRate limits requests per second. Non-positive values keep the default.
func WithRate(rps float64) Option {
	return func(s *APISource) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(s *APISource) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *APISource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewAPISource creates a source over the descriptions listing at baseURL.
func NewAPISource(baseURL string, opts ...Option) *APISource {
	s := &APISource{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: DefaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRPS), 1),
		pageSize: DefaultPageSize,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every page of the listing.
func (s *APISource) Load(ctx context.Context) ([]domcat.Description, error) {
	next, err := s.firstPage()
	if err != nil {
		return nil, err
	}

	var out []domcat.Description
	for pages := 0; next != ""; pages++ {
		if pages >= maxPages {
			return nil, fmt.Errorf("catalog listing exceeds %d pages", maxPages)
		}
		page, err := s.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		s.logger.Debug("catalog page fetched",
			zap.String("url", next),
			zap.Int("records", len(page.Results)),
			zap.Int("total", page.Count),
		)
		next = page.Next
	}
	return out, nil
}

// Ping checks that the listing answers.
func (s *APISource) Ping(ctx context.Context) error {
	u, err := s.firstPage()
	if err != nil {
		return err
	}
	_, err = s.fetch(ctx, u)
	return err
}

func (s *APISource) firstPage() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("catalog url %q is not absolute", s.baseURL)
	}
	q := u.Query()
	q.Set("page_size", strconv.Itoa(s.pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *APISource) fetch(ctx context.Context, pageURL string) (*domcat.Page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: HTTP 404 for %s", domain.ErrNotFound, pageURL)
		}
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
	}

	var page domcat.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", pageURL, err)
	}
	return &page, nil
}
