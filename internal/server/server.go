package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homeserver/internal/module"
	"github.com/wheelibin/homeserver/internal/router"
)

const shutdownTimeout = 5 * time.Second

type errorBody struct {
	Error string `json:"error"`
}

// Server is the HTTP front end: every request except /metrics is dispatched
// through the router.
type Server struct {
	logger  *log.Logger
	router  *router.Router
	metrics *metrics
}

// New creates the server. lightCount feeds the cached lights gauge and may be nil.
func New(logger *log.Logger, rt *router.Router, lightCount func() int) *Server {
	return &Server{logger: logger, router: rt, metrics: newMetrics(lightCount)}
}

// Handler returns the full handler, including /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.handler())
	mux.Handle("/", s)
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p)
			s.writeError(rec, http.StatusInternalServerError, "internal server error")
		}
		s.metrics.observe(methodLabel(r.Method), rec.statusCode(), time.Since(start))
	}()

	s.logger.Info("Incoming request", "method", r.Method, "path", r.URL.Path)

	if err := s.router.Dispatch(rec, r); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		} else {
			s.logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		}
		s.writeError(rec, status, err.Error())
	}
}

func statusFor(err error) int {
	var (
		noRoute  *router.NoRouteError
		notFound *module.NotFoundError
		invalid  *module.ValidationError
	)
	switch {
	case errors.As(err, &noRoute), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(rec *statusRecorder, status int, msg string) {
	if rec.wroteHeader {
		// too late to change the response
		return
	}
	if err := module.WriteJSON(rec, status, errorBody{Error: msg}); err != nil {
		s.logger.Error("Unable to write error response", "err", err)
	}
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodHead, http.MethodOptions, http.MethodPatch:
		return method
	default:
		return "OTHER"
	}
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, onShutdown ...func()) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, onShutdown...)
}

// Serve accepts connections on ln until ctx is done. onShutdown funcs run when
// the shutdown starts, e.g. to end long lived event streams.
func (s *Server) Serve(ctx context.Context, ln net.Listener, onShutdown ...func()) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	for _, fn := range onShutdown {
		srv.RegisterOnShutdown(fn)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down: %w", err)
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) statusCode() int {
	if !r.wroteHeader {
		return http.StatusOK
	}
	return r.status
}
