package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadFile loads a CSV dataset. The header must contain an "id" column; all
// other columns are carried as opaque payload in header order. Cell values
// are never reinterpreted, so ids like "007" survive round trips. A missing
// file is reported via the underlying fs error wrapped in ErrStorageRead;
// callers that treat absence as an empty dataset should check with
// errors.Is(err, fs.ErrNotExist).
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageRead, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s: empty file, missing header", ErrStorageRead, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageRead, path, err)
	}

	idIdx := -1
	for i, col := range header {
		if col == "id" {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("%w: %s: header has no id column", ErrStorageRead, path)
	}

	t := NewTable()
	for _, col := range header {
		t.AddColumn(col)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStorageRead, path, err)
		}
		rec := Record{Fields: make(map[string]string, len(header)-1)}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if i == idIdx {
				rec.ID = row[i]
				continue
			}
			rec.Fields[col] = row[i]
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteFile persists the table atomically: the CSV is written to a temp file
// in the destination directory, fsynced, then renamed over the target.
// Readers never observe a partially written file.
func WriteFile(t *Table, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrStorageWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %w", ErrStorageWrite, dir, err)
	}
	tmpName := tmp.Name()

	if err := writeCSV(t, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", ErrStorageWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync %s: %w", ErrStorageWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", ErrStorageWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename to %s: %w", ErrStorageWrite, path, err)
	}
	return nil
}

// WriteFileExclusive persists the table to a path that must not already
// exist. Used for backup files so a concurrent run cannot clobber one.
// An existing path surfaces as fs.ErrExist wrapped in ErrStorageWrite.
func WriteFileExclusive(t *Table, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrStorageWrite, path, err)
	}
	if err := writeCSV(t, f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: write %s: %w", ErrStorageWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorageWrite, path, err)
	}
	return nil
}

func writeCSV(t *Table, f *os.File) error {
	w := csv.NewWriter(f)

	header := append([]string{"id"}, t.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, rec := range t.Rows {
		row[0] = rec.ID
		for i, col := range t.Columns {
			row[i+1] = rec.Get(col)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
