package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"apptime/internal/infrastructure/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick outcomes
const (
	OutcomeIdle         = "idle"
	OutcomeExtended     = "extended"
	OutcomeSwitched     = "switched"
	OutcomeFocusError   = "focus_error"
	OutcomeStorageError = "storage_error"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apptime_ticks_total",
			Help: "Focus samples processed by the tracker, by outcome",
		},
		[]string{"outcome"},
	)

	DaySplitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apptime_day_splits_total",
			Help: "Intervals closed at local midnight and reopened on the next day",
		},
	)

	StorageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apptime_storage_errors_total",
			Help: "Failed tick transactions, by error code",
		},
		[]string{"code"},
	)

	IntervalHealsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apptime_interval_heals_total",
			Help: "Open intervals recreated after they went missing from the store",
		},
	)

	PersistDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apptime_persist_duration_seconds",
			Help:    "Duration of the per-tick write transaction",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		},
	)

	Focused = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "apptime_focused",
			Help: "1 while an application is focused, 0 while idle",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		DaySplitsTotal,
		StorageErrorsTotal,
		IntervalHealsTotal,
		PersistDuration,
		Focused,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   logging.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger logging.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logging.WithComponent(logger, "metrics"),
	}
}

// SetListener sets a pre-created listener (systemd socket activation, tests)
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Addr returns the bound address once Start has succeeded
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start binds the listener and serves in the background. Bind errors are
// returned to the caller.
func (s *Server) Start() error {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.server.Addr)
		if err != nil {
			return err
		}
		s.listener = ln
	}

	s.logger.Info("Starting metrics server", "addr", s.Addr())
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight scrapes until ctx ends
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping metrics server")
	return s.server.Shutdown(ctx)
}
