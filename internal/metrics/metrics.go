// Package metrics records Maven invocations in a private Prometheus
// registry and exports them to a node-exporter textfile or a Pushgateway.
package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/pkg/invoker"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

const defaultJob = "mvnops"

// Recorder owns the invocation metrics.
type Recorder struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	exitCode    *prometheus.GaugeVec
}

// New returns a recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnops_invocations_total",
				Help: "Total number of Maven invocations",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mvnops_invocation_duration_seconds",
				Help:    "Duration of Maven invocations in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"operation"},
		),
		exitCode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mvnops_invocation_exit_code",
				Help: "Exit code of the most recent Maven invocation (-1 when it did not exit)",
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one finished invocation. A nil result is ignored.
func (r *Recorder) Observe(operation string, res *invoker.Result) {
	if res == nil {
		return
	}
	r.invocations.WithLabelValues(operation, Outcome(res)).Inc()
	r.duration.WithLabelValues(operation).Observe(res.Duration.Seconds())
	r.exitCode.WithLabelValues(operation).Set(float64(res.ExitCode))
}

// Outcome classifies a result for the outcome label.
func Outcome(res *invoker.Result) string {
	switch {
	case res.Succeeded():
		return OutcomeSuccess
	case errors.Is(res.Err, invoker.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(res.Err, invoker.ErrExecutableNotFound):
		return OutcomeNotFound
	case errors.Is(res.Err, invoker.ErrNonZeroExit):
		return OutcomeFailure
	default:
		return OutcomeError
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push sends the registry to a Pushgateway, replacing the job's metrics.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if job == "" {
		job = defaultJob
	}
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Export writes to every sink configured in cfg.
func (r *Recorder) Export(ctx context.Context, cfg config.MetricsConfig) error {
	var errs []error
	if cfg.Textfile != "" {
		errs = append(errs, r.WriteTextfile(cfg.Textfile))
	}
	if cfg.PushgatewayURL != "" {
		errs = append(errs, r.Push(ctx, cfg.PushgatewayURL, cfg.Job))
	}
	return errors.Join(errs...)
}

// Enabled reports whether cfg names any sink.
func Enabled(cfg config.MetricsConfig) bool {
	return cfg.Textfile != "" || cfg.PushgatewayURL != ""
}
