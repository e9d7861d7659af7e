// Package archiver turns a produced backup set directory into a single
// archive file.
package archiver

import (
	"context"
	"fmt"
)

// Result carries the archiver's verdict and its tool output. OK reports that
// the archiver ran to completion; the orchestrator inspects the last output
// line for the success marker to distinguish clean runs from soft warnings.
type Result struct {
	OK     bool
	Output []string
}

// SuccessMarker prefixes the final output line of a clean archive run.
const SuccessMarker = "OK:"

// Archiver is the external archiver contract.
type Archiver interface {
	Archive(ctx context.Context, sourceDir, destArchivePath string) (Result, error)
}

// Format is the archive container/compression format.
type Format int

const (
	TarZst Format = iota
	TarGz
)

// ParseFormat maps a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "tar.zst":
		return TarZst, nil
	case "tar.gz":
		return TarGz, nil
	default:
		return TarZst, fmt.Errorf("unknown archive format %q", s)
	}
}

// Ext returns the file extension for the format, including the leading dot.
func (f Format) Ext() string {
	if f == TarGz {
		return ".tar.gz"
	}
	return ".tar.zst"
}

// Level is the compression effort level.
type Level int

const (
	Default Level = iota
	Fastest
	Better
	Best
)

// ParseLevel maps a config string to a Level. The empty string selects Default.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "default":
		return Default, nil
	case "fastest":
		return Fastest, nil
	case "better":
		return Better, nil
	case "best":
		return Best, nil
	default:
		return Default, fmt.Errorf("unknown compression level %q", s)
	}
}
