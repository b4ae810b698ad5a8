// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ctl exposes the wavelink control API over HTTP: link lifecycle
// operations, scanning, soft-AP management, a websocket event stream and
// Prometheus metrics.
package ctl

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"grimm.is/wavelink/internal/errors"
	"grimm.is/wavelink/internal/logging"
	"grimm.is/wavelink/internal/metrics"
	"grimm.is/wavelink/internal/wifi"
)

// ServerConfig holds HTTP server hardening limits.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
}

// DefaultServerConfig returns the default server limits.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// The write timeout must cover a full bounded-retry link attempt;
		// five attempts at two seconds plus driver time fits inside it.
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
		MaxBodyBytes:   1 << 20,
	}
}

// Server handles control API requests for one wireless interface.
type Server struct {
	mgr    *wifi.Manager
	log    *logging.Logger
	met    *metrics.Metrics
	cfg    *ServerConfig
	router *mux.Router
	http   *http.Server
}

// Options holds dependencies for the control server.
type Options struct {
	Manager *wifi.Manager
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Config  *ServerConfig
}

// NewServer builds a control server around an attached manager.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	s := &Server{
		mgr: opts.Manager,
		log: logger,
		met: opts.Metrics,
		cfg: cfg,
	}
	s.router = s.routes()
	return s
}

// Handler returns the full route tree, for serving or for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/api/v1/link", s.handleLink).Methods("POST")
	r.HandleFunc("/api/v1/unlink", s.handleUnlink).Methods("POST")
	r.HandleFunc("/api/v1/link/info", s.handleSetLinkInfo).Methods("POST")
	r.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/api/v1/rssi", s.handleRSSI).Methods("GET")
	r.HandleFunc("/api/v1/scan", s.handleScan).Methods("GET")

	r.HandleFunc("/api/v1/softap", s.handleSoftAPInit).Methods("POST")
	r.HandleFunc("/api/v1/softap", s.handleSoftAPOff).Methods("DELETE")
	r.HandleFunc("/api/v1/softap/config", s.handleSoftAPConfig).Methods("POST")
	r.HandleFunc("/api/v1/softap/clients", s.handleSoftAPClients).Methods("GET")

	r.HandleFunc("/api/v1/station/on", s.handleStationOn).Methods("POST")
	r.HandleFunc("/api/v1/station/off", s.handleStationOff).Methods("POST")

	r.HandleFunc("/api/v1/events", s.handleEvents).Methods("GET")

	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	if s.met != nil {
		r.Handle("/metrics", s.met.Handler()).Methods("GET")
	}
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("control api listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, errors.KindInternal, "api shutdown")
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, errors.KindInternal, "api listen")
		}
		return nil
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps an operation error to its HTTP status and writes the
// standard error envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForKind(errors.GetKind(err))
	response := map[string]interface{}{
		"error":  err.Error(),
		"kind":   errors.GetKind(err).String(),
		"status": status,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindUnsupported:
		return http.StatusNotImplemented
	case errors.KindNotLinked, errors.KindInvalidState:
		return http.StatusConflict
	case errors.KindUnavailable:
		return http.StatusServiceUnavailable
	case errors.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
