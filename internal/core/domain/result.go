package domain

import "time"

// Result is the outcome of a single recovery run.
type Result struct {
	RunID     string
	Found     bool
	Password  string
	Attempts  uint64
	SpaceSize uint64
	Elapsed   time.Duration
}
