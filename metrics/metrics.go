// Package metrics records interpretation sessions as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/interpret"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeComplete = "complete"
	OutcomeError    = "error"
	OutcomeClosed   = "closed"
	OutcomeRejected = "rejected"
)

// Recorder turns session snapshots into metrics. One Recorder serves any
// number of sessions; each registers Observer(feature).
type Recorder struct {
	chunks   *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	active   *prometheus.GaugeVec
	now      func() time.Time
}

// NewRecorder registers the session metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		chunks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeinterp_chunks_total",
			Help: "Chunk events applied to interpretation sessions",
		}, []string{"feature"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeinterp_runs_total",
			Help: "Interpretation runs grouped by how they ended",
		}, []string{"feature", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kubeinterp_run_duration_seconds",
			Help:    "Time from request to the end of an interpretation run",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"feature", "outcome"}),
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kubeinterp_active_runs",
			Help: "Interpretation runs currently loading or streaming",
		}, []string{"feature"}),
		now: time.Now,
	}
}

// Observer returns a session observer that attributes metrics to feature.
// Use one observer per session.
func (r *Recorder) Observer(feature string) interpret.Observer {
	var (
		mu      sync.Mutex
		runID   string
		started time.Time
		chunks  int
	)
	end := func(outcome string) {
		r.runs.WithLabelValues(feature, outcome).Inc()
		r.duration.WithLabelValues(feature, outcome).Observe(r.now().Sub(started).Seconds())
		r.active.WithLabelValues(feature).Dec()
		runID = ""
	}

	return func(s interpret.Snapshot) {
		mu.Lock()
		defer mu.Unlock()

		if s.Status == interpret.StatusLoading && s.ID != runID {
			if runID != "" {
				end(OutcomeClosed)
			}
			runID = s.ID
			started = r.now()
			chunks = 0
			r.active.WithLabelValues(feature).Inc()
		}
		if s.Status == interpret.StatusError && s.ID == "" {
			// Validation failure: Start dropped the previous run first.
			if runID != "" {
				end(OutcomeClosed)
			}
			r.runs.WithLabelValues(feature, OutcomeRejected).Inc()
			return
		}
		if runID == "" {
			return
		}

		if d := s.Chunks - chunks; d > 0 {
			r.chunks.WithLabelValues(feature).Add(float64(d))
			chunks = s.Chunks
		}
		switch s.Status {
		case interpret.StatusComplete:
			end(OutcomeComplete)
		case interpret.StatusError:
			end(OutcomeError)
		case interpret.StatusIdle:
			end(OutcomeClosed)
		}
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
