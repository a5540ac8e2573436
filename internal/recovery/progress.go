package recovery

import (
	"log/slog"
	"time"

	"github.com/tdvu/keyhound/internal/recovery/metrics"
)

// progressReporter periodically surfaces the attempt count and rate of
// one run. It only does atomic loads of the shared counter, so it
// never slows the workers down.
type progressReporter struct {
	st       *runState
	log      *slog.Logger
	interval time.Duration
	start    time.Time
	done     chan struct{}
}

func newProgressReporter(st *runState, log *slog.Logger, interval time.Duration, start time.Time) *progressReporter {
	return &progressReporter{
		st:       st,
		log:      log,
		interval: interval,
		start:    start,
		done:     make(chan struct{}),
	}
}

// run loops until stop is called. Termination is best-effort; the
// engine does not wait for it before returning the result.
func (p *progressReporter) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.report()
		}
	}
}

func (p *progressReporter) report() {
	attempts := p.st.attempts.Load()
	elapsed := time.Since(p.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(attempts) / elapsed
	}

	p.log.Info("progress", "attempts", attempts, "rate_per_sec", uint64(rate))

	metrics.Attempts.Set(float64(attempts))
	metrics.AttemptRate.Set(rate)
}

func (p *progressReporter) stop() {
	close(p.done)
}
