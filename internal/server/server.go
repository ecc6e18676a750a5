// Package server exposes authoring sessions and the compiler over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/Protoscribe/internal/monitor"
	"github.com/turtacn/Protoscribe/internal/session"
	"github.com/turtacn/Protoscribe/pkg/config"
	"github.com/turtacn/Protoscribe/pkg/consts"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/logger"
)

// Server wires the session manager, compiler defaults and metrics into a
// chi router.
type Server struct {
	cfg      config.Config
	sessions *session.Manager
	registry *prometheus.Registry
	router   chi.Router
	log      logger.Logger
}

// New builds a Server. The caller keeps ownership of the manager.
func New(cfg config.Config, sessions *session.Manager) (*Server, error) {
	reg := prometheus.NewRegistry()
	if err := monitor.Register(reg); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		registry: reg,
		log:      logger.Log.With("component", "server"),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	metricsPath := s.cfg.Observability.MetricsPath
	if metricsPath == "" {
		metricsPath = consts.DefaultMetricsPath
	}
	r.Method(http.MethodGet, metricsPath, monitor.Handler(s.registry))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/compile", s.handleCompile)
		r.Get("/verbs", s.handleVerbs)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Patch("/", s.handleUpdateSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/steps/{step}", s.handleSubmitStep)
				r.Post("/{action:back|abandon|undo|redo}", s.handleSessionAction)
				r.Get("/document", s.handleDocument)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// instrument records request latency by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		monitor.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
		s.log.Debug("HTTP request", "method", r.Method, "route", route, "status", rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

type errorBody struct {
	Code    perrors.ErrorCode `json:"code"`
	Message string            `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := perrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case perrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case perrors.ErrCodeStepOrder, perrors.ErrCodeSessionClosed,
		perrors.ErrCodeNothingToUndo, perrors.ErrCodeNothingToRedo:
		status = http.StatusConflict
	case perrors.ErrCodeDraftDecode, perrors.ErrCodeDocumentDecode, perrors.ErrCodePatchScope,
		perrors.ErrCodeInvalidRole, perrors.ErrCodeInvalidVerb, perrors.ErrCodeUnknownStep:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}

// Personal.AI order the ending
