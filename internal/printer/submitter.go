// Package printer submits files to the operating system's default print
// destination. Each platform backend satisfies the single Submitter
// capability; callers never branch on the platform themselves.
package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
)

var (
	ErrServiceUnavailable = errors.New("print service unavailable")
	ErrNoDefaultPrinter   = errors.New("no default printer configured")
	ErrRejected           = errors.New("submission rejected")
	ErrFileUnreadable     = errors.New("file unreadable")
	ErrUnsupportedOS      = errors.New("unsupported operating system")
)

// Submitter hands one file to the default print destination with default
// options. Submit blocks until the backend accepts or rejects the job; it
// does not wait for the physical printer to finish.
type Submitter interface {
	Submit(ctx context.Context, path string) error
}

// DestinationChecker is implemented by backends that can report the default
// print destination up front.
type DestinationChecker interface {
	DefaultDestination(ctx context.Context) (string, error)
}

// NewPlatformSubmitter selects the backend for the current operating system.
func NewPlatformSubmitter() (Submitter, error) {
	switch runtime.GOOS {
	case "windows":
		return NewWindowsSubmitter(), nil
	case "linux", "darwin", "freebsd", "openbsd", "netbsd":
		return NewCUPSSubmitter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
	}
}

// checkReadable maps a vanished or inaccessible file to ErrFileUnreadable
// before the backend is contacted. Files can disappear between discovery and
// submission; that is a per-job failure, not a run failure.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	f.Close()
	return nil
}

// DryRunSubmitter simulates submission. It records every path it was asked
// to print and performs no side effect.
type DryRunSubmitter struct {
	mu    sync.Mutex
	paths []string
}

func NewDryRunSubmitter() *DryRunSubmitter {
	return &DryRunSubmitter{}
}

func (s *DryRunSubmitter) Submit(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return nil
}

// Submitted returns the paths recorded so far, in submission order.
func (s *DryRunSubmitter) Submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}
