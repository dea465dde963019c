// Package csvutil streams large CSV data files row by row so they are
// never loaded into memory whole.
package csvutil

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// FilterFile copies the rows of the CSV at src for which keep returns true
// into a new CSV at dst, preserving column layout. onRow, when non-nil, is
// invoked once per input row for progress display. The row count of the
// output file is returned.
func FilterFile(
	ctx context.Context,
	src string,
	dst string,
	keep func(row []string) bool,
	onRow func(),
) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("filter csv: open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("filter csv: create %q: %w", dst, err)
	}
	defer out.Close()

	reader := csv.NewReader(in)
	// Data files carry ragged rows; length checks happen per consumer.
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	writer := csv.NewWriter(out)

	var kept int64
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("filter csv: read %q: %w", src, err)
		}
		if onRow != nil {
			onRow()
		}
		if !keep(row) {
			continue
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("filter csv: write %q: %w", dst, err)
		}
		kept++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("filter csv: flush %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("filter csv: close %q: %w", dst, err)
	}

	return kept, nil
}

// ScanFile visits every row of the CSV at path in file order. Returning an
// error from fn aborts the scan.
func ScanFile(ctx context.Context, path string, fn func(row []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("scan csv: open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan csv: read %q: %w", path, err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
