// Package preflight provides validation checks that run before the pipeline
// starts. A missing backup root is the fatal case; everything here is
// read-only except the writability probe.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckBackupRoot verifies the backup root exists and is a directory. A
// failure here is fatal to the run: rotation-then-create must not execute
// against a root that is not mounted or was never created.
func CheckBackupRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup root %s does not exist", root)
		}
		return fmt.Errorf("cannot access backup root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup root %s is not a directory", root)
	}
	return nil
}

// CheckBackupRootWritable performs a thorough write check by creating and
// deleting a temporary file.
func CheckBackupRootWritable(root string) error {
	probe := filepath.Join(root, ".rotabak-writetest.tmp")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("backup root %s is not writable: %w", root, err)
	}
	f.Close()
	_ = os.Remove(probe)
	return nil
}

// CheckFreeSpace verifies the volume holding root has at least minBytes
// available. minBytes <= 0 disables the check.
func CheckFreeSpace(root string, minBytes uint64) error {
	if minBytes == 0 {
		return nil
	}
	free, err := freeSpace(root)
	if err != nil {
		return fmt.Errorf("cannot determine free space for %s: %w", root, err)
	}
	if free < minBytes {
		return fmt.Errorf("insufficient free space on %s: %d bytes available, %d required", root, free, minBytes)
	}
	return nil
}
