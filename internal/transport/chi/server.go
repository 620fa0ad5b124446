// Package chi serves the search page, the JSON search API and the operational
// endpoints over a chi router.
package chi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/domain/search/state"
	logpkg "github.com/neogranadina/zasqua/internal/logger"
	"github.com/neogranadina/zasqua/internal/metrics"
	"github.com/neogranadina/zasqua/internal/render"
	"github.com/neogranadina/zasqua/internal/usecase/controller"
	healthuc "github.com/neogranadina/zasqua/internal/usecase/health"
	searchuc "github.com/neogranadina/zasqua/internal/usecase/search"
)

// APIPath is the JSON search endpoint.
const APIPath = "/api/v1/search"

// Config tunes the page surface.
type Config struct {
	Labels            render.Labels
	BasePath          string
	ApproximateTotals bool
}

// Server runs one controller per request over the shared search service.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server.
func NewServer(search *searchuc.Service, health *healthuc.Service, cfg Config, logger *zap.Logger) *Server {
	if cfg.BasePath == "" {
		cfg.BasePath = controller.DefaultBasePath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:        search,
		health:        health,
		cfg:           cfg,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// NewRouter assembles the middleware chain and every route.
func NewRouter(s *Server, apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(chimw.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	s.Routes(r)
	return r
}

// Routes registers the handlers on r.
func (s *Server) Routes(r chi.Router) {
	if s.cfg.BasePath != "/" {
		r.Get("/", s.redirectToSearch)
		r.Get(strings.TrimSuffix(s.cfg.BasePath, "/"), s.redirectToSearch)
	}
	r.Get(s.cfg.BasePath, s.SearchPage)
	r.Post(s.cfg.BasePath, s.ViewAllPage)
	r.Get(APIPath, s.SearchAPI)
	r.Post(APIPath, s.SearchAPI)
	r.Get("/healthz", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))
}

// SearchPage handles GET on the search page.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, false)
}

// ViewAllPage handles the view-all confirmation of a broad filter-only query.
func (s *Server) ViewAllPage(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, true)
}

// searchResponse is the JSON API body.
type searchResponse struct {
	State string      `json:"state"`
	Page  render.Page `json:"page"`
}

// SearchAPI handles the JSON search endpoint. POST confirms a broad query.
func (s *Server) SearchAPI(w http.ResponseWriter, r *http.Request) {
	page, st, err := s.cycle(r, r.Method == http.MethodPost)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{State: state.Encode(st), Page: page})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) redirectToSearch(w http.ResponseWriter, r *http.Request) {
	target := s.cfg.BasePath
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, viewAll bool) {
	page, _, err := s.cycle(r, viewAll)
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		logpkg.FromContext(r.Context()).Warn("search cycle failed", zap.Error(err))
	}

	var buf bytes.Buffer
	if err := render.HTML(&buf, page); err != nil {
		s.logger.Error("render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// cycle runs one search cycle for the request's query string.
func (s *Server) cycle(r *http.Request, viewAll bool) (render.Page, state.State, error) {
	ctx := logpkg.With(r.Context(), zap.String("state", r.URL.RawQuery), zap.Bool("view_all", viewAll))
	view := &pageView{}
	ctrl := controller.New(s.search, view, nil,
		controller.WithBasePath(s.cfg.BasePath),
		controller.WithLogger(logpkg.FromContext(ctx)),
		controller.WithInitialQuery(r.URL.RawQuery),
	)

	var err error
	if viewAll {
		err = ctrl.ViewAll(ctx)
	} else {
		err = ctrl.Load(ctx, r.URL.RawQuery)
	}

	st := ctrl.State()
	opts := render.Options{
		Labels:            s.cfg.Labels,
		Linker:            ctrl,
		ApproximateTotals: s.cfg.ApproximateTotals,
		GroupOpen:         ctrl.GroupOpen,
		BasePath:          s.cfg.BasePath,
	}
	var page render.Page
	switch {
	case err != nil:
		page = render.BuildError(err, st, opts)
	case !view.done:
		page = render.Loading(st, opts)
	default:
		page = render.Build(view.out, opts)
	}
	metrics.ObservePage(ctx, page.Kind)
	return page, st, err
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	if errors.Is(err, context.Canceled) {
		logger.Debug("request canceled", zap.Error(err))
		return
	}
	logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// pageView keeps the last delivered cycle result.
type pageView struct {
	out  searchuc.Outcome
	err  error
	done bool
}

func (v *pageView) Loading() {}

func (v *pageView) Render(out searchuc.Outcome) {
	v.out, v.err, v.done = out, nil, true
}

func (v *pageView) Error(err error) {
	v.err, v.done = err, true
}
