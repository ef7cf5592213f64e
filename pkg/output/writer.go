// Package output serializes harvested records as CSV.
package output

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultPath is the output file written when no path is configured.
const DefaultPath = "cbp_rulings_data.csv"

// ErrNoRecords is returned when there is nothing to write.
var ErrNoRecords = errors.New("no records to write")

// Write encodes records as comma-separated values, one record per line.
// Values containing commas, quotes or newlines are quoted.
func Write(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteFile writes records to path. The file is written next to its final
// location and renamed into place, so a failed write leaves no partial file.
// Empty records are rejected with ErrNoRecords and nothing is created.
func WriteFile(path string, records [][]string) (err error) {
	if len(records) == 0 {
		return ErrNoRecords
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bufw := bufio.NewWriterSize(tmp, 1<<20)
	if err := Write(bufw, records); err != nil {
		return err
	}
	if err := bufw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
