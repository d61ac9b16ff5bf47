// Package artifact reads and writes the persisted k-NN model: an XDR encoded
// set of labelled samples plus the search parameters.
package artifact

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-xdr/xdr2"
)

const magic = "GLOVE-KNN"

var ErrBadMagic = errors.New("not a glove model artifact")

type Sample struct {
	Features []float64
	Label    int32
}

type Model struct {
	Magic      string
	K          int32
	Distance   string
	Dimensions uint32
	Samples    []Sample
}

func NewModel(k int, distance string, samples []Sample) *Model {
	m := &Model{Magic: magic, K: int32(k), Distance: distance, Samples: samples}
	if len(samples) > 0 {
		m.Dimensions = uint32(len(samples[0].Features))
	}
	return m
}

// Validate checks that every sample has the declared dimensions and a
// non-negative label.
func (m *Model) Validate() error {
	if m.Magic != magic {
		return ErrBadMagic
	}
	if len(m.Samples) == 0 {
		return fmt.Errorf("model has no samples")
	}
	if m.Dimensions == 0 {
		return fmt.Errorf("model has zero dimensions")
	}
	if m.K < 0 {
		return fmt.Errorf("model k must not be negative, got %d", m.K)
	}
	for i, s := range m.Samples {
		if uint32(len(s.Features)) != m.Dimensions {
			return fmt.Errorf("sample %d has %d features, model has %d", i, len(s.Features), m.Dimensions)
		}
		if s.Label < 0 {
			return fmt.Errorf("sample %d has negative label %d", i, s.Label)
		}
		for _, f := range s.Features {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("sample %d has a non-finite feature", i)
			}
		}
	}
	return nil
}

func Encode(w io.Writer, m *Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}
	if _, err := xdr.Marshal(w, m); err != nil {
		return fmt.Errorf("xdr marshal model: %w", err)
	}
	return nil
}

func Decode(r io.Reader) (*Model, error) {
	var m Model
	if _, err := xdr.Unmarshal(r, &m); err != nil {
		return nil, fmt.Errorf("xdr unmarshal model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadFile loads an artifact. Paths ending in .csv are read as a labelled
// dataset instead.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadDataset(f, 0, "")
	}
	return Decode(bufio.NewReader(f))
}

func WriteFile(path string, m *Model) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, m); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// ReadDataset reads a CSV with a header row, feature columns and the label in
// the last column.
func ReadDataset(r io.Reader, k int, distance string) (*Model, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("dataset needs at least one feature and a label column, got %d columns", len(header))
	}

	var samples []Sample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}
		sample, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		samples = append(samples, sample)
	}

	m := NewModel(k, distance, samples)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseRecord(record []string) (Sample, error) {
	last := len(record) - 1
	features := make([]float64, last)
	for i := 0; i < last; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("feature %d: %w", i+1, err)
		}
		features[i] = v
	}
	label, err := strconv.ParseFloat(strings.TrimSpace(record[last]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("label: %w", err)
	}
	if label != math.Trunc(label) || label < 0 || label > math.MaxInt32 {
		return Sample{}, fmt.Errorf("label %v is not a class index", label)
	}
	return Sample{Features: features, Label: int32(label)}, nil
}
