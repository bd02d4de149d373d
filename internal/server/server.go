// Package server exposes the coordinate cache and the resolution engine over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/monitoring"
	"github.com/worldnewsmap/newsgeo/internal/pipeline"
	"github.com/worldnewsmap/newsgeo/internal/resolve"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

// RecordReader loads the records of a date.
type RecordReader interface {
	Read(date string) ([]model.Record, error)
}

// Deps are the collaborators the API serves from. Metrics and Gatherer may
// be nil.
type Deps struct {
	Engine     *resolve.Engine
	Handler    *resolve.Handler
	Records    RecordReader
	Metrics    *monitoring.Metrics
	Gatherer   prometheus.Gatherer
	ResolveRPS float64
}

// Server is the HTTP API.
type Server struct {
	deps    Deps
	limiter *rate.Limiter
}

// New builds a server. A non-positive ResolveRPS disables throttling.
func New(deps Deps) *Server {
	limit := rate.Inf
	if deps.ResolveRPS > 0 {
		limit = rate.Limit(deps.ResolveRPS)
	}
	return &Server{deps: deps, limiter: rate.NewLimiter(limit, 1)}
}

// Routes returns the router with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/cache/lookup", s.handleLookup)
		r.Post("/resolve", s.handleResolve)
		r.Get("/records/{date}", s.handleRecords)
	})

	if s.deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

type lookupResponse struct {
	POI        model.POI        `json:"poi"`
	Coordinate model.Coordinate `json:"coordinate"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	poi := model.POI{
		Country:     param(q.Get("country")),
		State:       param(q.Get("state")),
		City:        param(q.Get("city")),
		Institution: param(q.Get("institution")),
	}
	if !model.IsMeaningful(poi) {
		writeError(w, http.StatusBadRequest, "at least one of country, state, city, institution is required")
		return
	}

	c, ok := s.deps.Engine.Cache().Select(poi)
	if !ok {
		writeError(w, http.StatusNotFound, "not cached")
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{POI: poi, Coordinate: c})
}

type resolveResponse struct {
	POI        model.POI        `json:"poi"`
	Coordinate model.Coordinate `json:"coordinate"`
	Status     model.Status     `json:"status"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var poi model.POI
	if err := json.NewDecoder(r.Body).Decode(&poi); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.IsMeaningful(poi) {
		writeError(w, http.StatusBadRequest, "poi has no usable field")
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	opts := []pipeline.Option{pipeline.WithForceRefresh(force)}
	if s.deps.Metrics != nil {
		opts = append(opts, pipeline.WithObserver(s.deps.Metrics))
	}
	driver := pipeline.NewDriver(nil, s.deps.Handler, s.deps.Engine, opts...)

	records := []model.Record{{Status: model.StatusPoiFetched, POI: poi}}
	sum := driver.ProcessRecords(r.Context(), records)
	if sum.Interrupted > 0 {
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		POI:        poi,
		Coordinate: records[0].Coordinate,
		Status:     records[0].Status,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := s.deps.Records.Read(date)
	if err != nil {
		zap.L().Error("server: read records", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read records")
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		if s.deps.Metrics != nil {
			s.deps.Metrics.HTTPRequest(r.Method, route, status, elapsed)
		}
	})
}

func param(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
