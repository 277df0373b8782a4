package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/pkg/db"
)

// Config labels every collector registered by this package.
type Config struct {
	ServiceName string
	Environment string
}

// Reasons attached to pamdes_scheduler_job_errors_total.
const (
	SchedulerJobReasonDeadlineExceeded     = "deadline_exceeded"
	SchedulerJobReasonCanceled             = "canceled"
	SchedulerJobReasonLockContended        = "lock_contended"
	SchedulerJobReasonDBLockTimeout        = "db_lock_timeout"
	SchedulerJobReasonSerializationFailure = "serialization_failure"
	SchedulerJobReasonUniqueViolation      = "unique_violation"
	SchedulerJobReasonUnknown              = "unknown"
)

// reasonRules is evaluated in order; lock contention wraps a context error
// and must be matched before the context checks.
var reasonRules = []struct {
	reason string
	match  func(error) bool
}{
	{SchedulerJobReasonLockContended, func(err error) bool { return errors.Is(err, lock.ErrLockTimeout) }},
	{SchedulerJobReasonDeadlineExceeded, func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }},
	{SchedulerJobReasonCanceled, func(err error) bool { return errors.Is(err, context.Canceled) }},
	{SchedulerJobReasonDBLockTimeout, db.IsLockTimeoutErr},
	{SchedulerJobReasonSerializationFailure, isSerializationFailure},
	{SchedulerJobReasonUniqueViolation, db.IsDuplicateKeyErr},
}

// ClassifySchedulerJobReason maps a job error onto a bounded label value.
func ClassifySchedulerJobReason(err error) string {
	if err == nil {
		return SchedulerJobReasonUnknown
	}
	for _, rule := range reasonRules {
		if rule.match(err) {
			return rule.reason
		}
	}
	return SchedulerJobReasonUnknown
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

// SchedulerMetrics tracks billing job runs: bill generation, overdue sweeps
// and bundle maintenance.
type SchedulerMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	batchProcessed *prometheus.CounterVec
	runLoopLag     prometheus.Observer
}

var (
	schedulerOnce sync.Once
	scheduler     *SchedulerMetrics
)

// Scheduler returns the process-wide collectors on the default registerer.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig is Scheduler with service/env labels. Only the first
// call's config takes effect.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerOnce.Do(func() {
		scheduler = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return scheduler
}

// ResetSchedulerMetricsForTest forgets the singleton so a test can register
// against its own registry.
func ResetSchedulerMetricsForTest() {
	schedulerOnce = sync.Once{}
	scheduler = nil
}

func constLabels(cfg Config) prometheus.Labels {
	labelOr := func(v, fallback string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return fallback
	}
	return prometheus.Labels{
		"service": labelOr(cfg.ServiceName, "pamdes"),
		"env":     labelOr(cfg.Environment, "unknown"),
	}
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)
	counter := func(name, help string, vars ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "pamdes",
			Subsystem:   "scheduler",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, vars)
	}

	m := &SchedulerMetrics{
		jobRuns:     counter("job_runs_total", "Scheduler job runs by name.", "job"),
		jobTimeouts: counter("job_timeouts_total", "Scheduler jobs cut off by their timeout.", "job"),
		jobErrors:   counter("job_errors_total", "Scheduler job failures by reason.", "job", "reason"),
		batchProcessed: counter("batch_processed_total",
			"Bills, bundles and villages touched by scheduler jobs.", "job", "resource"),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "pamdes",
			Subsystem:   "scheduler",
			Name:        "job_duration_seconds",
			Help:        "Wall time of one scheduler job run.",
			Buckets:     prometheus.ExponentialBuckets(0.01, 2.5, 12),
			ConstLabels: labels,
		}, []string{"job"}),
	}
	lag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "pamdes",
		Subsystem:   "scheduler",
		Name:        "runloop_lag_seconds",
		Help:        "Delay between a scheduled tick and the run it started.",
		Buckets:     prometheus.ExponentialBuckets(0.01, 3, 9),
		ConstLabels: labels,
	})
	m.runLoopLag = lag

	registerer.MustRegister(m.jobRuns, m.jobDuration, m.jobTimeouts, m.jobErrors, m.batchProcessed, lag)
	return m
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m != nil {
		m.jobRuns.WithLabelValues(job).Inc()
	}
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m != nil {
		m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m != nil {
		m.jobTimeouts.WithLabelValues(job).Inc()
	}
}

// IncJobError is a no-op for nil errors.
func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifySchedulerJobReason(err)).Inc()
}

// AddBatchProcessed ignores non-positive counts.
func (m *SchedulerMetrics) AddBatchProcessed(job, resource string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.batchProcessed.WithLabelValues(job, resource).Add(float64(count))
}

// ObserveRunLoopLag clamps negative lag to zero.
func (m *SchedulerMetrics) ObserveRunLoopLag(d time.Duration) {
	if m == nil {
		return
	}
	m.runLoopLag.Observe(max(d, 0).Seconds())
}
