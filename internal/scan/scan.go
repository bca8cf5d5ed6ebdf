// Package scan discovers PDF files under a root directory and puts them in
// the deterministic order they will be submitted.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdfspool/pdfspool/internal/core"
)

var (
	ErrRootNotFound   = errors.New("root directory not found")
	ErrNotADirectory  = errors.New("root is not a directory")
	ErrRootUnreadable = errors.New("root directory unreadable")
)

const pdfExtension = ".pdf"

// WarnFunc receives non-fatal problems encountered during a scan, such as an
// unreadable subdirectory. The scan continues after each call.
type WarnFunc func(format string, args ...interface{})

// Scanner bundles discovery and ordering behind the orchestrator's
// Discoverer interface.
type Scanner struct{}

func (Scanner) Discover(root string, warn func(format string, args ...interface{})) ([]core.PrintJob, error) {
	return Discover(root, warn)
}

func (Scanner) Order(jobs []core.PrintJob) []core.PrintJob {
	return Order(jobs)
}

// Discover walks root recursively and returns a PrintJob for every regular
// file whose name ends in .pdf, case-insensitively. Symlinked directories are
// followed, but each physical directory is visited at most once so link
// cycles terminate. A read failure on the root itself is fatal; failures in
// nested directories are reported through warn and the scan continues. The
// returned order is whatever the filesystem yields; callers pass it through
// Order before use.
func Discover(root string, warn WarnFunc) ([]core.PrintJob, error) {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	entries, err := os.ReadDir(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}

	visited := map[string]bool{resolved: true}
	var jobs []core.PrintJob
	walkEntries(absRoot, entries, visited, warn, &jobs)
	return jobs, nil
}

func walk(dir string, visited map[string]bool, warn WarnFunc, jobs *[]core.PrintJob) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		warn("cannot resolve directory %s: %v", dir, err)
		return
	}
	if visited[resolved] {
		return
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		warn("cannot read directory %s: %v", dir, err)
		return
	}

	walkEntries(dir, entries, visited, warn, jobs)
}

func walkEntries(dir string, entries []os.DirEntry, visited map[string]bool, warn WarnFunc, jobs *[]core.PrintJob) {
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				warn("cannot stat %s: %v", path, err)
				continue
			}
			if target.IsDir() {
				walk(path, visited, warn, jobs)
				continue
			}
			// Symlinks to files are not regular files; skip them.
			continue
		}

		if entry.IsDir() {
			walk(path, visited, warn, jobs)
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name()), pdfExtension) {
			continue
		}

		*jobs = append(*jobs, core.PrintJob{
			Path:         path,
			Dir:          dir,
			Name:         entry.Name(),
			DiscoveredAt: time.Now(),
		})
	}
}

// Order sorts jobs by containing directory first and file name second, both
// ascending with plain string comparison. The result is independent of the
// enumeration order the filesystem produced, so repeated runs over an
// unchanged tree submit in the same sequence. Distinct files cannot share a
// (directory, name) pair, so the order is total.
func Order(jobs []core.PrintJob) []core.PrintJob {
	ordered := make([]core.PrintJob, len(jobs))
	copy(ordered, jobs)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Dir != ordered[j].Dir {
			return ordered[i].Dir < ordered[j].Dir
		}
		return ordered[i].Name < ordered[j].Name
	})

	return ordered
}
