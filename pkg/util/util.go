package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Permission constants for file and directory modes.
const (
	// UserWritableDirPerms represents the standard permissions for newly created directories (rwxr-xr-x).
	UserWritableDirPerms os.FileMode = 0755
	// UserWritableFilePerms represents the standard permissions for newly created files (rw-r--r--).
	UserWritableFilePerms os.FileMode = 0644
)

// ExpandPath expands the tilde (~) prefix in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil // No tilde, return as-is.
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}

	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:]), nil
	}
	// Paths like "~user" are not supported.
	return "", fmt.Errorf("unsupported path format: %s", path)
}

// NormalizePath converts a path to forward slashes for use as a stable,
// platform-independent key. NOT for direct filesystem access.
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// MergeAndDeduplicate combines multiple string slices into one, preserving
// first-seen order and dropping duplicates.
func MergeAndDeduplicate(slices ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, s := range slices {
		for _, v := range s {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	return merged
}
