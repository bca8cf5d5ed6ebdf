package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// Partition splits an ordered job list into consecutive batches of size n.
// Batches cover the list without gaps, overlaps or reordering; only the last
// batch may be shorter than n.
func Partition(jobs []PrintJob, n int) ([][]PrintJob, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBatchSize, n)
	}

	batches := make([][]PrintJob, 0, (len(jobs)+n-1)/n)
	for start := 0; start < len(jobs); start += n {
		end := start + n
		if end > len(jobs) {
			end = len(jobs)
		}
		batches = append(batches, jobs[start:end])
	}
	return batches, nil
}

// pause waits for the inter-batch delay, returning early with the context
// error if the run is cancelled while waiting.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
