package core_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdfspool/pdfspool/internal/core"
	"github.com/pdfspool/pdfspool/internal/printer"
	"github.com/pdfspool/pdfspool/internal/runlog"
	"github.com/pdfspool/pdfspool/internal/scan"
)

func TestDryRunOverRealTree(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 23; i++ {
		path := filepath.Join(root, fmt.Sprintf("map%d", i%4), fmt.Sprintf("doc%02d.pdf", i))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	}

	var buf bytes.Buffer
	log, err := runlog.New("", &buf)
	require.NoError(t, err)

	sub := printer.NewDryRunSubmitter()
	r := core.NewRunner(core.RunConfig{
		Root:      root,
		BatchSize: 10,
		DryRun:    true,
	}, scan.Scanner{}, sub, log, nil)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 23, result.Discovered)
	require.Equal(t, 23, result.Submitted)
	require.Equal(t, 0, result.Failed)
	require.Equal(t, 3, result.Batches)
	require.True(t, result.Succeeded())

	// Submission order matches the lexical (directory, name) order.
	submitted := sub.Submitted()
	require.Len(t, submitted, 23)
	for i := 1; i < len(submitted); i++ {
		di, ni := filepath.Dir(submitted[i-1]), filepath.Base(submitted[i-1])
		dj, nj := filepath.Dir(submitted[i]), filepath.Base(submitted[i])
		require.True(t, di < dj || (di == dj && ni < nj),
			"out of order: %s before %s", submitted[i-1], submitted[i])
	}

	out := buf.String()
	require.Equal(t, 23, strings.Count(out, runlog.KindDiscovered))
	require.Equal(t, 23, strings.Count(out, runlog.KindWouldPrint))
	require.Contains(t, out, "batch 3/3 (3 files)")
}
