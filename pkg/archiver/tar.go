package archiver

import (
	"archive/tar"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	"github.com/severin-lang/rotabak/pkg/rlog"
	"github.com/severin-lang/rotabak/pkg/util"
)

// TarArchiver is the native Archiver implementation producing tar.zst or
// tar.gz archives. Both compressors parallelize internally, so a single
// writer pipeline is sufficient for the one archive a run produces.
type TarArchiver struct {
	format       Format
	level        Level
	ioBufferSize int
}

var _ Archiver = (*TarArchiver)(nil)

// NewTarArchiver creates a native archiver. bufferSizeKB controls the I/O
// buffer used for file copies.
func NewTarArchiver(format Format, level Level, bufferSizeKB int) *TarArchiver {
	if bufferSizeKB <= 0 {
		bufferSizeKB = 256
	}
	return &TarArchiver{
		format:       format,
		level:        level,
		ioBufferSize: bufferSizeKB * 1024,
	}
}

// Archive writes sourceDir into a single archive at destArchivePath. The
// archive is staged in a temp file and moved into place with an atomic
// rename, so a crashed run never leaves a half-written archive behind.
//
// Unreadable entries inside the source are skipped and counted rather than
// aborting the archive; the skip count turns the final output line into an
// anomaly the caller downgrades to a warning.
func (a *TarArchiver) Archive(ctx context.Context, sourceDir, destArchivePath string) (retRes Result, retErr error) {
	rlog.Notice("COMPRESS", "source", sourceDir, "dest", destArchivePath)

	trgF, err := os.CreateTemp(filepath.Dir(destArchivePath), "rotabak-*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp archive: %w", err)
	}
	tempTrgPath := trgF.Name()

	// Ensure cleanup on error.
	defer func() {
		if retErr != nil {
			trgF.Close()
			os.Remove(tempTrgPath)
		}
	}()

	entries, bytesWritten, skipped, err := a.writeArchive(ctx, sourceDir, trgF)
	if err != nil {
		return Result{}, err
	}

	if err := trgF.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err := os.Rename(tempTrgPath, destArchivePath); err != nil {
		return Result{}, fmt.Errorf("failed to rename temp archive to final path: %w", err)
	}
	if err := os.Chmod(destArchivePath, util.UserWritableFilePerms); err != nil {
		rlog.Warn("Failed to set archive permissions", "path", destArchivePath, "error", err)
	}

	out := []string{
		fmt.Sprintf("archived %d entries (%d bytes read) from %s", entries, bytesWritten, sourceDir),
	}
	if skipped > 0 {
		out = append(out, fmt.Sprintf("WARNING: skipped %d unreadable entries", skipped))
	} else {
		out = append(out, fmt.Sprintf("%s archive complete", SuccessMarker))
	}
	return Result{OK: true, Output: out}, nil
}

// writeArchive streams the source tree through the tar and compression
// writers. Returns entry count, bytes read and the number of skipped entries.
func (a *TarArchiver) writeArchive(ctx context.Context, sourceDir string, dst io.Writer) (entries int, bytesRead int64, skipped int, retErr error) {
	bufWriter := bufio.NewWriterSize(dst, a.ioBufferSize)

	var compressedWriter io.WriteCloser
	if a.format == TarZst {
		var encoderLevel zstd.EncoderLevel
		switch a.level {
		case Fastest:
			encoderLevel = zstd.SpeedFastest
		case Better:
			encoderLevel = zstd.SpeedBetterCompression
		case Best:
			encoderLevel = zstd.SpeedBestCompression
		default:
			encoderLevel = zstd.SpeedDefault
		}
		zstdWriter, err := zstd.NewWriter(bufWriter, zstd.WithEncoderLevel(encoderLevel))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		compressedWriter = zstdWriter
	} else {
		var lvl int
		switch a.level {
		case Fastest:
			lvl = pgzip.BestSpeed
		case Better:
			lvl = 6 // Good balance
		case Best:
			lvl = pgzip.BestCompression
		default:
			lvl = pgzip.DefaultCompression
		}
		pgzipWriter, err := pgzip.NewWriterLevel(bufWriter, lvl)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		compressedWriter = pgzipWriter
	}

	tw := tar.NewWriter(compressedWriter)

	// Robust cleanup: close inner-to-outer, keep the first error.
	defer func() {
		if err := tw.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("tar writer close failed: %w", err)
		}
		if err := compressedWriter.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("compressed writer close failed: %w", err)
		}
		if err := bufWriter.Flush(); err != nil && retErr == nil {
			retErr = fmt.Errorf("buffer flush failed: %w", err)
		}
	}()

	copyBuf := make([]byte, a.ioBufferSize)

	walkErr := filepath.WalkDir(sourceDir, func(absSrcPath string, d os.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			skipped++
			rlog.Warn("Skipping unreadable entry", "path", absSrcPath, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skipped++
			return nil
		}

		relPathKey, err := filepath.Rel(sourceDir, absSrcPath)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", absSrcPath, err)
		}
		relPathKey = util.NormalizePath(relPathKey)

		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err := os.Readlink(absSrcPath)
			if err != nil {
				skipped++
				return nil
			}
			header, err := tar.FileInfoHeader(info, linkTarget)
			if err != nil {
				return fmt.Errorf("failed to create tar header for %s: %w", relPathKey, err)
			}
			header.Name = relPathKey
			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			entries++
			return nil
		}

		f, err := os.Open(absSrcPath)
		if err != nil {
			skipped++
			rlog.Warn("Skipping unreadable file", "path", absSrcPath, "error", err)
			return nil
		}
		defer f.Close()

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header for %s: %w", relPathKey, err)
		}
		header.Name = relPathKey
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", relPathKey, err)
		}

		n, err := io.CopyBuffer(tw, f, copyBuf)
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", relPathKey, err)
		}
		bytesRead += n
		entries++
		return nil
	})
	if walkErr != nil {
		return entries, bytesRead, skipped, walkErr
	}
	return entries, bytesRead, skipped, nil
}
