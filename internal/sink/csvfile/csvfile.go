// Package csvfile persists the collected buffer as a CSV file, rewriting the
// whole file on every flush.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/sink"
)

// Config leaves Path empty by default; the deployment profile picks the file.
type Config struct {
	Path string `envconfig:"GLOVE_CSV_PATH"`
}

var _ sink.Persister = (*Writer)(nil)

type Writer struct {
	path string
}

func New(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("csv path is not defined")
	}
	return &Writer{path: path}, nil
}

func (w *Writer) Name() string { return "csv" }

func (w *Writer) Path() string { return w.path }

// Flush writes entries to a temporary file next to the target and renames it
// over the target, so readers never observe a partial snapshot.
func (w *Writer) Flush(ctx context.Context, entries []reading.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	dims := entries[0].Reading.Dimensions()
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := ioutil.TempFile(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp, dims, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace %s: %w", w.path, err)
	}
	logging.FromContext(ctx).Infof("Data saved to %s (%d entries)", w.path, len(entries))
	return nil
}

func write(f *os.File, dims int, entries []reading.Entry) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(sink.Header(dims)); err != nil {
		return err
	}
	row := make([]string, 0, dims+2)
	for i, e := range entries {
		if e.Reading.Dimensions() != dims {
			return fmt.Errorf("entry %d has %d values, expected %d", i, e.Reading.Dimensions(), dims)
		}
		row = append(row[:0], e.Timestamp.Format(sink.TimestampLayout))
		row = append(row, e.Reading.Strings()...)
		row = append(row, e.Prediction.String())
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
