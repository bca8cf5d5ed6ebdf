package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdfspool/pdfspool/internal/runlog"
)

var ErrRootRequired = errors.New("root directory is required")

// Submitter hands one file to the print backend. Implemented by the platform
// backends and by the dry-run recorder.
type Submitter interface {
	Submit(ctx context.Context, path string) error
}

// Discoverer finds the PDF files under a root and arranges them in
// submission order.
type Discoverer interface {
	Discover(root string, warn func(format string, args ...interface{})) ([]PrintJob, error)
	Order(jobs []PrintJob) []PrintJob
}

// JobObserver is notified after every job reaches its final outcome. A nil
// observer is allowed. Observer errors are not possible by design; recording
// outcomes must never interfere with the run.
type JobObserver interface {
	JobCompleted(job PrintJob, batch int, err error)
}

// RunConfig is the full configuration of one run. It is validated once when
// the run starts and read-only afterwards.
type RunConfig struct {
	RunID      string
	Root       string
	BatchSize  int
	BatchDelay time.Duration
	DryRun     bool
	MaxRetries int
	RetryDelay time.Duration
}

func (c *RunConfig) validate() error {
	if c.Root == "" {
		return ErrRootRequired
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidBatchSize, c.BatchSize)
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}
	return nil
}

// Runner drives one run end to end: validate, discover, order, then submit
// batch by batch, strictly sequentially. Per-job failures are recorded and
// the run continues; only configuration and whole-root errors are fatal.
type Runner struct {
	cfg       RunConfig
	discover  Discoverer
	submitter Submitter
	log       *runlog.Logger
	observer  JobObserver
}

// NewRunner wires a run. observer may be nil.
func NewRunner(cfg RunConfig, d Discoverer, s Submitter, log *runlog.Logger, observer JobObserver) *Runner {
	return &Runner{
		cfg:       cfg,
		discover:  d,
		submitter: s,
		log:       log,
		observer:  observer,
	}
}

// Run executes the whole run and returns its result. The returned error is
// non-nil only for fatal conditions: invalid configuration, a failed
// discovery, or cancellation. Submission failures are reported through the
// result, not the error.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     r.cfg.RunID,
		Root:      r.cfg.Root,
		DryRun:    r.cfg.DryRun,
		StartedAt: time.Now(),
	}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}

	if err := r.cfg.validate(); err != nil {
		result.FinishedAt = time.Now()
		r.log.Errorf("invalid configuration: %v", err)
		return result, err
	}

	// Nothing is logged before discovery succeeds, so a bad root leaves
	// only the failure entry behind.
	jobs, err := r.discover.Discover(r.cfg.Root, r.log.Warnf)
	if err != nil {
		result.FinishedAt = time.Now()
		r.log.Errorf("discovery failed: %v", err)
		return result, fmt.Errorf("discover: %w", err)
	}

	ordered := r.discover.Order(jobs)
	result.Discovered = len(ordered)

	r.log.Infof("run %s started for %s", result.RunID, r.cfg.Root)
	if r.cfg.DryRun {
		r.log.Infof("dry run - no files will be printed")
	}
	r.log.Infof("found %d PDF files", result.Discovered)
	for _, job := range ordered {
		r.log.Event(runlog.KindDiscovered, job.Path, "")
	}

	if result.Discovered == 0 {
		result.FinishedAt = time.Now()
		r.logSummary(result)
		return result, nil
	}

	batches, err := Partition(ordered, r.cfg.BatchSize)
	if err != nil {
		result.FinishedAt = time.Now()
		r.log.Errorf("invalid configuration: %v", err)
		return result, err
	}
	result.Batches = len(batches)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return r.interrupted(result, err)
		}

		r.log.Event(runlog.KindBatch, "", "batch %d/%d (%d files)", i+1, len(batches), len(batch))

		for _, job := range batch {
			if err := ctx.Err(); err != nil {
				return r.interrupted(result, err)
			}
			r.submitJob(ctx, job, i+1, result)
		}

		if i < len(batches)-1 {
			if err := pause(ctx, r.cfg.BatchDelay); err != nil {
				return r.interrupted(result, err)
			}
		}
	}

	result.FinishedAt = time.Now()
	r.logSummary(result)
	return result, nil
}

// submitJob submits one job, retrying up to MaxRetries times. The job counts
// as failed only once its last attempt has failed.
func (r *Runner) submitJob(ctx context.Context, job PrintJob, batch int, result *RunResult) {
	var err error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			r.log.Warnf("retry %d/%d for %s", attempt, r.cfg.MaxRetries, job.Path)
			if pause(ctx, r.cfg.RetryDelay) != nil {
				break
			}
		}
		err = r.submitter.Submit(ctx, job.Path)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err != nil {
		result.Failed++
		result.Failures = append(result.Failures, JobFailure{Path: job.Path, Batch: batch, Err: err})
		r.log.Event(runlog.KindFailed, job.Path, "%v", err)
	} else {
		result.Submitted++
		kind := runlog.KindSubmitted
		if r.cfg.DryRun {
			kind = runlog.KindWouldPrint
		}
		r.log.Event(kind, job.Path, "")
	}

	if r.observer != nil {
		r.observer.JobCompleted(job, batch, err)
	}
}

func (r *Runner) interrupted(result *RunResult, err error) (*RunResult, error) {
	result.FinishedAt = time.Now()
	r.log.Warnf("run interrupted: %v", err)
	r.logSummary(result)
	return result, err
}

func (r *Runner) logSummary(result *RunResult) {
	r.log.Event(runlog.KindSummary, "",
		"run %s: %d discovered, %d submitted, %d failed, %d batches, %s elapsed",
		result.RunID, result.Discovered, result.Submitted, result.Failed,
		result.Batches, result.Duration().Round(time.Millisecond))
}
