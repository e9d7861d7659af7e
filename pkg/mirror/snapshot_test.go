package mirror_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/severin-lang/rotabak/pkg/mirror"
)

func TestTierScoped(t *testing.T) {
	filter := mirror.TierScoped("SRV01", "Daily", []string{"*logs*"})

	tests := []struct {
		name     string
		entry    string
		expected bool
	}{
		{"Matching set directory", "SRV01-Daily-W12-Wednesday", true},
		{"Matching compressed set", "SRV01-Daily-W12-Tuesday.tar.zst", true},
		{"Wrong tier", "SRV01-Weekly-W12", false},
		{"Wrong host", "OTHERHOST-Daily-W12-Wednesday", false},
		{"Excluded by glob", "SRV01-Daily-W12-logs", false},
		{"Plain logs directory", "logs", false},
		{"Config file", "rotabak.config.json", false},
		{"State file", ".rotabak.state.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter(tt.entry); got != tt.expected {
				t.Errorf("filter(%q) = %v, expected %v", tt.entry, got, tt.expected)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "SRV01-Daily-W12-Tuesday.tar.zst"), "archive")
	writeFile(t, filepath.Join(dst, "SRV01-Daily-W12-Tuesday.tar.zst"), "archive")

	// Entries outside the tier scope must not affect parity.
	writeFile(t, filepath.Join(src, "logs", "rotabak-20260318-030000.log"), "log data")
	writeFile(t, filepath.Join(src, "SRV01-Weekly-W12.tar.zst"), "other tier")

	filter := mirror.TierScoped("SRV01", "Daily", []string{"*logs*"})

	equal, err := mirror.Compare(context.Background(), src, dst, filter)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !equal {
		t.Error("Expected equal listings when differences are out of scope")
	}

	// A size difference within scope breaks parity.
	writeFile(t, filepath.Join(dst, "SRV01-Daily-W12-Tuesday.tar.zst"), "archive but longer")
	equal, err = mirror.Compare(context.Background(), src, dst, filter)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if equal {
		t.Error("Expected a size mismatch to break parity")
	}

	// A missing entry within scope breaks parity.
	writeFile(t, filepath.Join(dst, "SRV01-Daily-W12-Tuesday.tar.zst"), "archive")
	writeFile(t, filepath.Join(src, "SRV01-Daily-W12-Wednesday", "system.dat"), "payload")
	equal, err = mirror.Compare(context.Background(), src, dst, filter)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if equal {
		t.Error("Expected a missing set to break parity")
	}
}

func TestCompareMissingDestination(t *testing.T) {
	src := t.TempDir()
	_, err := mirror.Compare(context.Background(), src, filepath.Join(src, "missing"), mirror.IncludeAll)
	if err == nil {
		t.Fatal("Expected an error for an unreadable destination")
	}
}

func TestEqual(t *testing.T) {
	a := []mirror.Entry{{Name: "x", Size: 1}, {Name: "y", Dir: true}}
	b := []mirror.Entry{{Name: "x", Size: 1}, {Name: "y", Dir: true}}

	if !mirror.Equal(a, b) {
		t.Error("Expected identical snapshots to be equal")
	}
	if mirror.Equal(a, b[:1]) {
		t.Error("Expected different lengths to be unequal")
	}

	b[0].Size = 2
	if mirror.Equal(a, b) {
		t.Error("Expected a size difference to be unequal")
	}
}

func TestReachable(t *testing.T) {
	dir := t.TempDir()
	if err := mirror.Reachable(dir); err != nil {
		t.Errorf("Expected an existing directory to be reachable: %v", err)
	}

	if err := mirror.Reachable(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected a missing path to be unreachable")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := mirror.Reachable(file); err == nil {
		t.Error("Expected a regular file to be rejected")
	}
}
