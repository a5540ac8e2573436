package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tdvu/keyhound/internal/core/config"
	"github.com/tdvu/keyhound/internal/core/domain"
	"github.com/tdvu/keyhound/internal/recovery/metrics"
)

// ErrNoCandidates means the word list produced no base token within
// the grammar's length bounds, so there is nothing to search.
var ErrNoCandidates = errors.New("word list yields no viable base tokens")

// Validator checks one candidate password against the target secret.
// Implementations must be safe for concurrent use: the engine invokes
// it from up to MaxWorkers goroutines at once.
type Validator interface {
	Validate(password string) (bool, error)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(password string) (bool, error)

func (f ValidatorFunc) Validate(password string) (bool, error) { return f(password) }

// Engine drives a password search against a Validator.
type Engine struct {
	validator        Validator
	grammar          domain.Grammar
	log              *slog.Logger
	progressInterval time.Duration
}

// NewEngine creates a recovery engine. A nil logger falls back to
// slog.Default(); a non-positive interval falls back to one second.
func NewEngine(v Validator, g domain.Grammar, log *slog.Logger, progressInterval time.Duration) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if progressInterval <= 0 {
		progressInterval = 1 * time.Second
	}
	return &Engine{
		validator:        v,
		grammar:          g,
		log:              log,
		progressInterval: progressInterval,
	}
}

// runState is the shared mutable state of one run. A fresh value is
// created per Recover call and discarded at its end; workers
// communicate through nothing else.
type runState struct {
	attempts atomic.Uint64
	found    atomic.Bool
	// password is written only by the worker that wins the found CAS
	// and read only after all workers have joined.
	password string
}

// Recover searches the full candidate space for a password the
// validator accepts. Candidates are generated one at a time, so memory
// stays flat regardless of the space size. The first match cancels all
// other workers; exhaustion without a match is a normal negative
// result, not an error.
func (e *Engine) Recover(ctx context.Context, cfg config.PasswordConfig, workers int) (domain.Result, error) {
	if workers < config.MinWorkers || workers > config.MaxWorkers {
		return domain.Result{}, fmt.Errorf("worker count %d out of range [%d,%d]", workers, config.MinWorkers, config.MaxWorkers)
	}
	if err := cfg.Validate(e.grammar); err != nil {
		return domain.Result{}, fmt.Errorf("invalid password config: %w", err)
	}

	runID := uuid.NewString()
	log := e.log.With("run_id", runID)

	bases := GenerateBases(cfg.BaseWords, e.grammar)
	if len(bases) == 0 {
		return domain.Result{}, ErrNoCandidates
	}

	space := uint64(len(bases)) * uint64(len(cfg.DigitPatterns)) * uint64(len(cfg.SpecialChars))
	log.Info("starting recovery",
		"bases", len(bases),
		"digit_patterns", len(cfg.DigitPatterns),
		"special_chars", len(cfg.SpecialChars),
		"space", space,
		"workers", workers,
	)

	metrics.RunsStarted.Inc()
	metrics.SpaceSize.Set(float64(space))

	st := &runState{}
	start := time.Now()

	reporter := newProgressReporter(st, log, e.progressInterval, start)
	go reporter.run()

	var wg sync.WaitGroup
	for _, c := range partition(len(bases), workers) {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.searchChunk(ctx, st, bases[c.start:c.end], cfg.DigitPatterns, cfg.SpecialChars, log)
		}()
	}
	wg.Wait()
	reporter.stop()

	res := domain.Result{
		RunID:     runID,
		Found:     st.found.Load(),
		Password:  st.password,
		Attempts:  st.attempts.Load(),
		SpaceSize: space,
		Elapsed:   time.Since(start),
	}

	switch {
	case res.Found:
		log.Info("recovery succeeded", "attempts", res.Attempts, "elapsed", res.Elapsed)
	case ctx.Err() != nil:
		log.Info("recovery cancelled", "attempts", res.Attempts, "elapsed", res.Elapsed)
	default:
		log.Info("search space exhausted", "attempts", res.Attempts, "elapsed", res.Elapsed)
	}

	return res, nil
}

// searchChunk tries base+digits+special for every combination in its
// slice of the base ordering. The found flag (and the context) is
// checked at all three nesting levels so that cancellation latency is
// bounded by one inner iteration, not a whole base's combinations.
func (e *Engine) searchChunk(ctx context.Context, st *runState, bases, digits, specials []string, log *slog.Logger) {
	for _, base := range bases {
		if st.found.Load() || ctx.Err() != nil {
			return
		}
		for _, d := range digits {
			if st.found.Load() || ctx.Err() != nil {
				return
			}
			for _, sp := range specials {
				if st.found.Load() || ctx.Err() != nil {
					return
				}

				candidate := base + d + sp
				st.attempts.Add(1)

				ok, err := e.validator.Validate(candidate)
				if err != nil {
					// A failed oracle call counts as a miss for this
					// one candidate and must never sink the run.
					metrics.OracleErrors.Inc()
					log.Warn("validator error, skipping candidate", "error", err)
					continue
				}
				if ok && st.found.CompareAndSwap(false, true) {
					st.password = candidate
					return
				}
			}
		}
	}
}
