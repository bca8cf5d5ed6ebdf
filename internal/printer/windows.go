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

// WindowsSubmitter prints through the shell "print" verb of the registered
// PDF handler, the same mechanism as the Explorer right-click print action.
type WindowsSubmitter struct {
	shellPath string
	timeout   time.Duration
}

func NewWindowsSubmitter() *WindowsSubmitter {
	return &WindowsSubmitter{
		shellPath: "powershell",
		timeout:   defaultSubmitTimeout,
	}
}

func (s *WindowsSubmitter) Submit(ctx context.Context, path string) error {
	if err := checkReadable(path); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.shellPath, "-NoProfile", "-NonInteractive", "-Command", printVerbScript(path))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: powershell not found", ErrServiceUnavailable)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, ctx.Err())
	}

	msg := strings.TrimSpace(stderr.String())
	if strings.Contains(strings.ToLower(msg), "spooler") {
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, msg)
	}
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

// DefaultDestination reports the default printer via WMI, or
// ErrNoDefaultPrinter when Windows has none configured.
func (s *WindowsSubmitter) DefaultDestination(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	script := "(Get-CimInstance Win32_Printer -Filter 'Default=true').Name"
	out, err := exec.CommandContext(ctx, s.shellPath, "-NoProfile", "-NonInteractive", "-Command", script).Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: powershell not found", ErrServiceUnavailable)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", ErrNoDefaultPrinter
	}
	return name, nil
}

// printVerbScript builds the PowerShell command that invokes the print verb.
// Start-Process failures are non-terminating by default and would leave the
// shell with exit code 0, so the script forces a terminating error and maps
// it to a nonzero exit with the message on stderr.
func printVerbScript(path string) string {
	return fmt.Sprintf(
		"try { Start-Process -FilePath %s -Verb Print -ErrorAction Stop } catch { [Console]::Error.WriteLine($_.Exception.Message); exit 1 }",
		psQuote(path))
}

// psQuote single-quotes a path for PowerShell, doubling embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
