package printer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	return path
}

// fakeLp writes an executable shell script that mimics lp and returns its
// path. Unix only.
func fakeLp(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestDryRunSubmitterRecordsWithoutSideEffects(t *testing.T) {
	s := NewDryRunSubmitter()
	ctx := context.Background()

	require.NoError(t, s.Submit(ctx, "/docs/a.pdf"))
	require.NoError(t, s.Submit(ctx, "/docs/b.pdf"))

	require.Equal(t, []string{"/docs/a.pdf", "/docs/b.pdf"}, s.Submitted())
}

func TestDryRunSubmitterHonorsCancelledContext(t *testing.T) {
	s := NewDryRunSubmitter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, s.Submit(ctx, "/docs/a.pdf"))
	require.Empty(t, s.Submitted())
}

func TestCUPSSubmitterFileVanished(t *testing.T) {
	s := NewCUPSSubmitter()
	err := s.Submit(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.ErrorIs(t, err, ErrFileUnreadable)
}

func TestCUPSSubmitterCommandMissing(t *testing.T) {
	s := NewCUPSSubmitter()
	s.lpPath = "pdfspool-test-no-such-lp"

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestCUPSSubmitterSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires unix")
	}
	s := NewCUPSSubmitter()
	s.lpPath = fakeLp(t, "exit 0")

	require.NoError(t, s.Submit(context.Background(), tempPDF(t)))
}

func TestCUPSSubmitterNoDefaultDestination(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires unix")
	}
	s := NewCUPSSubmitter()
	s.lpPath = fakeLp(t, `echo "lp: Error - no default destination available." >&2; exit 1`)

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrNoDefaultPrinter)
}

func TestCUPSSubmitterSchedulerDown(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires unix")
	}
	s := NewCUPSSubmitter()
	s.lpPath = fakeLp(t, `echo "lp: Unable to connect to server" >&2; exit 1`)

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestCUPSSubmitterRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires unix")
	}
	s := NewCUPSSubmitter()
	s.lpPath = fakeLp(t, `echo "lp: The printer or class does not exist." >&2; exit 1`)

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrRejected)
}

func TestParseLpstatDefault(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    string
		wantErr error
	}{
		{
			name: "named destination",
			out:  "system default destination: HP_LaserJet\n",
			want: "HP_LaserJet",
		},
		{
			name:    "no destination",
			out:     "no system default destination\n",
			wantErr: ErrNoDefaultPrinter,
		},
		{
			name:    "empty output",
			out:     "",
			wantErr: ErrNoDefaultPrinter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLpstatDefault(tt.out)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// fakeShell stands in for powershell on unix hosts, same pattern as fakeLp.
func fakeShell(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "powershell")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

// The print verb is dispatched through Start-Process, whose failures are
// non-terminating by default and leave the shell exiting 0. The script must
// promote them to a nonzero exit so a handler-less host does not look like a
// successful submission.
func TestPrintVerbScriptPromotesFailuresToNonzeroExit(t *testing.T) {
	script := printVerbScript(`C:\docs\it's.pdf`)
	require.Contains(t, script, "-ErrorAction Stop")
	require.Contains(t, script, "catch")
	require.Contains(t, script, "exit 1")
	require.Contains(t, script, `'C:\docs\it''s.pdf'`)
}

func TestWindowsSubmitterVerbFailureRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires unix")
	}
	s := NewWindowsSubmitter()
	s.shellPath = fakeShell(t, `echo "This command cannot be run due to the error: No application is associated with the specified file for this operation." >&2; exit 1`)

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrRejected)
}

func TestWindowsSubmitterSpoolerDown(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires unix")
	}
	s := NewWindowsSubmitter()
	s.shellPath = fakeShell(t, `echo "The Print Spooler service is not running." >&2; exit 1`)

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestWindowsSubmitterShellMissing(t *testing.T) {
	s := NewWindowsSubmitter()
	s.shellPath = "pdfspool-test-no-such-shell"

	err := s.Submit(context.Background(), tempPDF(t))
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestPsQuote(t *testing.T) {
	require.Equal(t, `'C:\docs\a.pdf'`, psQuote(`C:\docs\a.pdf`))
	require.Equal(t, `'it''s.pdf'`, psQuote(`it's.pdf`))
}

func TestNewPlatformSubmitter(t *testing.T) {
	s, err := NewPlatformSubmitter()
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		require.IsType(t, &WindowsSubmitter{}, s)
	} else {
		require.IsType(t, &CUPSSubmitter{}, s)
	}
}
