// Package fsutil holds small filesystem helpers shared by the pipeline and
// workspace scaffolding.
package fsutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// CountLines returns the number of lines in the file at path. Used to size
// progress bars before streaming a data file.
func CountLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("count lines: open %q: %w", path, err)
	}
	defer f.Close()

	// ReadBytes returns the final unterminated line with io.EOF, so a
	// trailing line without a newline still counts.
	var count int64
	r := bufio.NewReaderSize(f, 256*1024)
	for {
		chunk, err := r.ReadBytes('\n')
		if len(chunk) > 0 {
			count++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count lines: read %q: %w", path, err)
		}
	}

	return count, nil
}

// EnsureDir creates the directory path (and parents) when missing.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("ensure dir %q: %w", path, err)
	}
	return nil
}

// CopyDirContents copies everything inside src into dst (which must exist).
// Individual entries that fail with a permission error are logged and
// skipped; any other failure aborts the copy.
func CopyDirContents(log *slog.Logger, src string, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("copy dir: read %q: %w", src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		var copyErr error
		if entry.IsDir() {
			copyErr = copyTree(srcPath, dstPath)
		} else {
			copyErr = copyFile(srcPath, dstPath)
		}

		if copyErr != nil {
			if errors.Is(copyErr, fs.ErrPermission) {
				log.Warn("skipping entry due to permission error", slog.String("path", srcPath))
				continue
			}
			return fmt.Errorf("copy dir: %w", copyErr)
		}
	}

	return nil
}

func copyTree(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}

	return out.Close()
}
