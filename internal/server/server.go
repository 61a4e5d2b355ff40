package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pubdesk/pubdesk/pkg/configuration"
)

// HTTPServer is the operational surface: liveness plus metrics. The
// workflow engine itself is driven through its service API.
type HTTPServer struct {
	logger *logrus.Logger
	pool   *pgxpool.Pool
	srv    *http.Server
}

type Options struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Pool          *pgxpool.Pool
}

func New(opts *Options) *HTTPServer {
	s := &HTTPServer{
		logger: opts.Logger,
		pool:   opts.Pool,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if opts.Configuration.Prometheus.Enabled {
		r.Handle(opts.Configuration.Prometheus.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *HTTPServer) Start(socketAddress string) error {
	s.srv.Addr = socketAddress
	return s.srv.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := s.pool.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("health: database ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
