package preflight_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/severin-lang/rotabak/pkg/preflight"
)

func TestCheckBackupRoot(t *testing.T) {
	if err := preflight.CheckBackupRoot(t.TempDir()); err != nil {
		t.Errorf("Expected an existing directory to pass: %v", err)
	}

	if err := preflight.CheckBackupRoot(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected a missing root to fail")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := preflight.CheckBackupRoot(file); err == nil {
		t.Error("Expected a regular file to fail")
	}
}

func TestCheckBackupRootWritable(t *testing.T) {
	root := t.TempDir()
	if err := preflight.CheckBackupRootWritable(root); err != nil {
		t.Errorf("Expected a temp directory to be writable: %v", err)
	}

	// The probe file must not survive the check.
	if _, err := os.Stat(filepath.Join(root, ".rotabak-writetest.tmp")); !os.IsNotExist(err) {
		t.Error("Expected the write probe to be removed")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	root := t.TempDir()

	if err := preflight.CheckFreeSpace(root, 0); err != nil {
		t.Errorf("Expected a zero minimum to disable the check: %v", err)
	}
	if err := preflight.CheckFreeSpace(root, 1); err != nil {
		t.Errorf("Expected one byte of free space: %v", err)
	}
	if err := preflight.CheckFreeSpace(root, math.MaxUint64); err == nil {
		t.Error("Expected an absurd minimum to fail")
	}
}
