package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// PageNone labels requests that render no search page (health, static, metrics).
const PageNone = "none"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zasqua",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route and rendered page kind",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "page"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zasqua",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, status and rendered page kind",
		},
		[]string{"method", "route", "status", "page"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
}

type pageKey struct{}

// pageLabel is filled by the handler once it knows what it rendered.
type pageLabel struct{ kind string }

// ObservePage records the kind of search page ("results", "browse_prompt",
// "error", ...) served for the current request. Outside Middleware it is a no-op.
func ObservePage(ctx context.Context, kind string) {
	if l, ok := ctx.Value(pageKey{}).(*pageLabel); ok && kind != "" {
		l.kind = kind
	}
}

// Middleware records HTTP request duration and count per chi route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			label := &pageLabel{kind: PageNone}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), pageKey{}, label)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeLabel(chi.RouteContext(r.Context()))

			httpRequestDuration.WithLabelValues(r.Method, route, label.kind).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status), label.kind).Inc()
		})
	}
}

// routeLabel keeps label cardinality bounded: raw paths never become labels.
func routeLabel(rctx *chi.Context) string {
	if rctx == nil {
		return "unknown"
	}
	return normalizePath(rctx.RoutePattern())
}

func normalizePath(pattern string) string {
	if pattern == "" {
		return "unknown"
	}
	return pattern
}
