package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/tdvu/keyhound/internal/recovery/metrics"
)

// Status is the JSON snapshot served at /status. Values update at the
// progress reporter's cadence, so a mid-run read is approximate.
type Status struct {
	Attempts   uint64  `json:"attempts"`
	RatePerSec float64 `json:"rate_per_sec"`
	SpaceSize  uint64  `json:"space_size"`
}

// Server exposes run telemetry over HTTP for polling. Consumers may
// ignore it entirely; the search does not depend on it.
type Server struct {
	server *http.Server
}

// NewServer creates a telemetry server listening on the given port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := Status{
		Attempts:   uint64(gaugeValue(metrics.Attempts)),
		RatePerSec: gaugeValue(metrics.AttemptRate),
		SpaceSize:  uint64(gaugeValue(metrics.SpaceSize)),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

func gaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
