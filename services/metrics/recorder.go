package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultLocked             = "locked"
	ResultInvalidToken       = "invalid_token"
	ResultError              = "error"
)

// Recorder holds the authentication counters. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	reuseDetected   prometheus.Counter
	lockouts        prometheus.Counter
	revocations     *prometheus.CounterVec
	cleanupDeleted  prometheus.Counter
	cleanupFailures prometheus.Counter
	cleanupDuration prometheus.Histogram
}

func NewRecorder(namespace string) (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Refresh token exchanges by result.",
		}, []string{"result"}),
		reuseDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_token_reuse_detected_total",
			Help:      "Presentations of already revoked refresh tokens.",
		}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Accounts locked after repeated failed logins.",
		}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tokens_revoked_total",
			Help:      "Refresh tokens revoked by reason.",
		}, []string{"reason"}),
		cleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_cleanup_deleted_total",
			Help:      "Refresh token records removed by cleanup.",
		}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_cleanup_failures_total",
			Help:      "Cleanup passes that failed.",
		}),
		cleanupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_cleanup_duration_seconds",
			Help:      "Duration of cleanup passes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		r.logins, r.refreshes, r.reuseDetected, r.lockouts,
		r.revocations, r.cleanupDeleted, r.cleanupFailures, r.cleanupDuration,
	}
	for _, c := range collectors {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return r, nil
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler exposes the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) LoginAttempt(result string) {
	if r != nil {
		r.logins.WithLabelValues(result).Inc()
	}
}

func (r *Recorder) Refresh(result string) {
	if r != nil {
		r.refreshes.WithLabelValues(result).Inc()
	}
}

func (r *Recorder) ReuseDetected() {
	if r != nil {
		r.reuseDetected.Inc()
	}
}

func (r *Recorder) Lockout() {
	if r != nil {
		r.lockouts.Inc()
	}
}

func (r *Recorder) Revoked(reason string, count int64) {
	if r != nil && count > 0 {
		r.revocations.WithLabelValues(reason).Add(float64(count))
	}
}

func (r *Recorder) CleanupCompleted(deleted int64, took time.Duration) {
	if r == nil {
		return
	}
	r.cleanupDeleted.Add(float64(deleted))
	r.cleanupDuration.Observe(took.Seconds())
}

func (r *Recorder) CleanupFailed() {
	if r != nil {
		r.cleanupFailures.Inc()
	}
}
