// Package inventory lists on-disk backup sets for a rotation tier.
package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind distinguishes the two on-disk forms a backup set can take.
type Kind int

const (
	KindDirectory Kind = iota
	KindArchive
)

func (k Kind) String() string {
	if k == KindArchive {
		return "archive"
	}
	return "directory"
}

// BackupSet represents one backup artifact found under the backup root.
type BackupSet struct {
	Name    string
	Path    string
	Kind    Kind
	ModTime time.Time
}

// List returns the backup sets under root whose name contains both the host
// identifier and the tier label, ordered oldest-first by last-write time with
// ties broken by name. An inaccessible root is a recoverable condition: the
// caller receives an empty list together with the error and should treat it
// as "zero existing sets".
func List(root, host, tierLabel string) ([]BackupSet, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return []BackupSet{}, fmt.Errorf("failed to read backup root %s: %w", root, err)
	}

	marker := "-" + tierLabel + "-"
	var sets []BackupSet
	for _, entry := range entries {
		name := entry.Name()
		if !strings.Contains(name, host) || !strings.Contains(name, marker) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info; skip it.
			continue
		}

		kind := KindDirectory
		if !entry.IsDir() {
			kind = KindArchive
		}
		sets = append(sets, BackupSet{
			Name:    name,
			Path:    filepath.Join(root, name),
			Kind:    kind,
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(sets, func(i, j int) bool {
		if sets[i].ModTime.Equal(sets[j].ModTime) {
			return sets[i].Name < sets[j].Name
		}
		return sets[i].ModTime.Before(sets[j].ModTime)
	})
	return sets, nil
}
