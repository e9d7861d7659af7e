package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Entry is one top-level item of a listing snapshot. Directory sizes are not
// compared; their contents are the mirror tool's concern, parity is judged at
// the set level.
type Entry struct {
	Name string
	Dir  bool
	Size int64
}

// Filter decides whether a top-level entry participates in a listing.
type Filter func(name string) bool

// IncludeAll is the identity filter.
func IncludeAll(string) bool { return true }

// TierScoped returns a filter that keeps only entries belonging to the given
// host and tier label, excluding names that match any of the given glob
// patterns (log files and directories typically live next to the sets and
// must not affect parity).
func TierScoped(host, tierLabel string, excludeGlobs []string) Filter {
	marker := "-" + tierLabel + "-"
	return func(name string) bool {
		if !strings.Contains(name, host) || !strings.Contains(name, marker) {
			return false
		}
		for _, pattern := range excludeGlobs {
			if ok, _ := filepath.Match(pattern, name); ok {
				return false
			}
		}
		return true
	}
}

// Snapshot lists the top-level entries of dir that pass the filter, sorted by
// name.
func Snapshot(dir string, include Filter) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", dir, err)
	}

	var entries []Entry
	for _, e := range dirEntries {
		if !include(e.Name()) {
			continue
		}
		entry := Entry{Name: e.Name(), Dir: e.IsDir()}
		if !e.IsDir() {
			if info, err := e.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Equal reports whether two snapshots describe the same listing.
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare snapshots source and destination concurrently and reports whether
// their filtered listings match.
func Compare(ctx context.Context, srcDir, dstDir string, include Filter) (bool, error) {
	var srcEntries, dstEntries []Entry

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		srcEntries, err = Snapshot(srcDir, include)
		return err
	})
	g.Go(func() error {
		var err error
		dstEntries, err = Snapshot(dstDir, include)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	return Equal(srcEntries, dstEntries), nil
}

// Reachable verifies the remote destination exists and is a directory.
func Reachable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("remote path %s not reachable: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("remote path %s is not a directory", path)
	}
	return nil
}
