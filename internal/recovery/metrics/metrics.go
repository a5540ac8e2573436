package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Attempts mirrors the shared attempt counter of the current run.
	Attempts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keyhound_attempts",
			Help: "Candidate passwords tested so far in the current run",
		},
	)

	// AttemptRate tracks the current validation throughput.
	AttemptRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keyhound_attempt_rate_per_sec",
			Help: "Candidate passwords tested per second",
		},
	)

	// SpaceSize tracks the total candidate space of the current run.
	SpaceSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "keyhound_search_space_size",
			Help: "Total number of candidate passwords in the current run",
		},
	)

	// RunsStarted counts recovery runs since process start.
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keyhound_runs_total",
			Help: "Total number of recovery runs started",
		},
	)

	// OracleErrors counts validator failures that were skipped.
	OracleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keyhound_oracle_errors_total",
			Help: "Total number of validator errors treated as non-matches",
		},
	)
)
