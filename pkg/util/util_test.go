package util_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/severin-lang/rotabak/pkg/util"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("No home directory available: %v", err)
	}

	tests := []struct {
		name        string
		in          string
		expected    string
		expectError bool
	}{
		{name: "No tilde", in: "/var/backups", expected: "/var/backups"},
		{name: "Bare tilde", in: "~", expected: home},
		{name: "Tilde with path", in: "~/backups", expected: filepath.Join(home, "backups")},
		{name: "Named user unsupported", in: "~other/backups", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := util.ExpandPath(tt.in)
			if tt.expectError {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandPath failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMergeAndDeduplicate(t *testing.T) {
	got := util.MergeAndDeduplicate(
		[]string{"a", "b"},
		[]string{"b", "c"},
		[]string{"a", "d"},
	)
	expected := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
