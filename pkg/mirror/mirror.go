// Package mirror replicates the backup root to a remote destination and
// verifies parity via directory listings.
package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/severin-lang/rotabak/pkg/rlog"
	"github.com/severin-lang/rotabak/pkg/util"
)

// Tool is the external mirroring contract: after Mirror returns, dstDir is a
// mirror of srcDir, including deletions on the destination. The returned
// lines are the tool's own output for the mirror log.
type Tool interface {
	Mirror(ctx context.Context, srcDir, dstDir string) ([]string, error)
}

// modTimeWindow is the tolerance for comparing file modification times.
// Network filesystems often store coarser timestamps than the source.
const modTimeWindow = time.Second

// NativeMirror is the built-in Tool implementation. Files are copied when
// missing or when size or modification time differ; destination entries with
// no source counterpart are deleted.
type NativeMirror struct {
	ioBufferSize int
	output       []string
}

var _ Tool = (*NativeMirror)(nil)

// NewNativeMirror creates a native mirror tool. bufferSizeKB controls the
// copy buffer size.
func NewNativeMirror(bufferSizeKB int) *NativeMirror {
	if bufferSizeKB <= 0 {
		bufferSizeKB = 256
	}
	return &NativeMirror{ioBufferSize: bufferSizeKB * 1024}
}

// Mirror makes dstDir a mirror of srcDir. It never modifies the source.
func (m *NativeMirror) Mirror(ctx context.Context, srcDir, dstDir string) ([]string, error) {
	m.output = m.output[:0]
	m.logf("mirror %s -> %s", srcDir, dstDir)

	if err := os.MkdirAll(dstDir, util.UserWritableDirPerms); err != nil {
		return m.output, fmt.Errorf("cannot create mirror destination %s: %w", dstDir, err)
	}
	if err := m.mirrorDir(ctx, srcDir, dstDir); err != nil {
		return m.output, err
	}
	m.logf("mirror finished")
	return m.output, nil
}

func (m *NativeMirror) logf(format string, args ...any) {
	m.output = append(m.output, fmt.Sprintf(format, args...))
}

// mirrorDir replicates one directory level and recurses into subdirectories.
func (m *NativeMirror) mirrorDir(ctx context.Context, srcDir, dstDir string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	srcEntries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("cannot read mirror source %s: %w", srcDir, err)
	}
	dstEntries, err := os.ReadDir(dstDir)
	if err != nil {
		return fmt.Errorf("cannot read mirror destination %s: %w", dstDir, err)
	}

	srcNames := make(map[string]os.DirEntry, len(srcEntries))
	for _, e := range srcEntries {
		srcNames[e.Name()] = e
	}

	// Deletions first, so a file replaced by a directory (or vice versa)
	// does not collide during the copy pass.
	for _, e := range dstEntries {
		src, exists := srcNames[e.Name()]
		if exists && src.IsDir() == e.IsDir() {
			continue
		}
		target := filepath.Join(dstDir, e.Name())
		m.logf("delete %s", target)
		rlog.Notice("MIRROR DELETE", "path", target)
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("cannot delete %s: %w", target, err)
		}
	}

	for _, e := range srcEntries {
		srcPath := filepath.Join(srcDir, e.Name())
		dstPath := filepath.Join(dstDir, e.Name())

		if e.IsDir() {
			if err := os.MkdirAll(dstPath, util.UserWritableDirPerms); err != nil {
				return fmt.Errorf("cannot create %s: %w", dstPath, err)
			}
			if err := m.mirrorDir(ctx, srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		srcInfo, err := e.Info()
		if err != nil {
			return fmt.Errorf("cannot stat %s: %w", srcPath, err)
		}
		if upToDate(srcInfo, dstPath) {
			continue
		}

		m.logf("copy %s", dstPath)
		rlog.Notice("MIRROR COPY", "path", dstPath)
		if err := m.copyFile(srcPath, dstPath, srcInfo); err != nil {
			return err
		}
	}
	return nil
}

// upToDate reports whether the destination file already matches the source by
// size and modification time (within the tolerance window).
func upToDate(srcInfo os.FileInfo, dstPath string) bool {
	dstInfo, err := os.Stat(dstPath)
	if err != nil {
		return false
	}
	if dstInfo.Size() != srcInfo.Size() {
		return false
	}
	delta := srcInfo.ModTime().Sub(dstInfo.ModTime())
	if delta < 0 {
		delta = -delta
	}
	return delta <= modTimeWindow
}

func (m *NativeMirror) copyFile(srcPath, dstPath string, srcInfo os.FileInfo) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dstPath, err)
	}

	buf := make([]byte, m.ioBufferSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return fmt.Errorf("copy to %s failed: %w", dstPath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close %s failed: %w", dstPath, err)
	}

	// Carry the source mod time so subsequent runs recognize the file as
	// up to date.
	if err := os.Chtimes(dstPath, time.Now(), srcInfo.ModTime()); err != nil {
		rlog.Warn("Failed to preserve mod time", "path", dstPath, "error", err)
	}
	return nil
}
