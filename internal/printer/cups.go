package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultSubmitTimeout = 30 * time.Second

// CUPSSubmitter prints through the CUPS command-line spooler: one `lp` call
// per file, default destination, default options.
type CUPSSubmitter struct {
	lpPath     string
	lpstatPath string
	timeout    time.Duration
}

func NewCUPSSubmitter() *CUPSSubmitter {
	return &CUPSSubmitter{
		lpPath:     "lp",
		lpstatPath: "lpstat",
		timeout:    defaultSubmitTimeout,
	}
}

func (s *CUPSSubmitter) Submit(ctx context.Context, path string) error {
	if err := checkReadable(path); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.lpPath, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: lp command not found, is CUPS installed", ErrServiceUnavailable)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, ctx.Err())
	}

	msg := strings.TrimSpace(stderr.String())
	if isNoDestination(msg) {
		return fmt.Errorf("%w: %s", ErrNoDefaultPrinter, msg)
	}
	if isSchedulerDown(msg) {
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, msg)
	}
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

// DefaultDestination reports the CUPS default printer via `lpstat -d`, or
// ErrNoDefaultPrinter when none is configured.
func (s *CUPSSubmitter) DefaultDestination(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.lpstatPath, "-d").Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: lpstat command not found", ErrServiceUnavailable)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	return parseLpstatDefault(string(out))
}

// parseLpstatDefault extracts the destination name from lpstat -d output,
// which is either "system default destination: <name>" or a sentence saying
// there is none.
func parseLpstatDefault(out string) (string, error) {
	line := strings.TrimSpace(out)
	if isNoDestination(line) {
		return "", ErrNoDefaultPrinter
	}
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		name := strings.TrimSpace(line[idx+1:])
		if name != "" {
			return name, nil
		}
	}
	return "", ErrNoDefaultPrinter
}

func isNoDestination(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no default destination") ||
		strings.Contains(lower, "no system default destination")
}

func isSchedulerDown(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "unable to connect") ||
		strings.Contains(lower, "scheduler is not running") ||
		strings.Contains(lower, "connection refused")
}
