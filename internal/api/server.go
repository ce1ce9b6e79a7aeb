package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"snow-search/internal/common/config"
	"snow-search/internal/common/logger"
)

const requestIDHeader = "X-Request-ID"

// NewRouter wraps the routes with request IDs, access logging, CORS and
// panic recovery, outermost last.
func NewRouter(h *Handler, cfg config.ServerConfig, log logger.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(requestID)
	h.RegisterRoutes(router)

	var handler http.Handler = router
	handler = handlers.CustomLoggingHandler(io.Discard, handler, accessLog(log))
	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type", "Origin", requestIDHeader, "X-Requested-With"}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log}),
		handlers.PrintRecoveryStack(false),
	)(handler)
	return handler
}

// requestID reuses the caller's X-Request-ID or mints one, and echoes it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(log logger.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Info("http request", map[string]interface{}{
			"method":    p.Request.Method,
			"path":      p.URL.Path,
			"status":    p.StatusCode,
			"size":      p.Size,
			"requestId": p.Request.Header.Get(requestIDHeader),
		})
	}
}

type recoveryLogger struct {
	log logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("panic recovered", map[string]interface{}{"panic": fmt.Sprint(v...)})
}

// Server owns the http.Server lifecycle.
type Server struct {
	srv    *http.Server
	logger logger.Logger
}

func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Address,
			Handler:      handler,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
		logger: log,
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down", nil)
	return s.srv.Shutdown(ctx)
}
