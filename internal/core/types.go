package core

import (
	"time"
)

// PrintJob is one discovered PDF awaiting submission. It is created by the
// scanner and never mutated afterwards.
type PrintJob struct {
	Path         string
	Dir          string
	Name         string
	DiscoveredAt time.Time
}

// JobFailure records a single job that could not be submitted.
type JobFailure struct {
	Path  string
	Batch int
	Err   error
}

// RunResult is the aggregate outcome of one run. It is built additively by
// the Runner and finalized before being handed back to the caller.
type RunResult struct {
	RunID      string
	Root       string
	DryRun     bool
	Discovered int
	Submitted  int
	Failed     int
	Failures   []JobFailure
	Batches    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether every discovered job was submitted.
func (r *RunResult) Succeeded() bool {
	return r.Failed == 0
}

// Duration returns the wall-clock time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
