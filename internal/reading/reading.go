// Package reading defines the values that flow through the collector: the
// parsed sensor tuple, the classifier label and the collected entry.
package reading

import (
	"strconv"
	"time"

	"github.com/go-sod/glove/internal/geom"
)

// Reading is an ordered tuple of sensor values. It is never mutated after
// parsing.
type Reading []float64

func New(values ...float64) Reading {
	r := make(Reading, len(values))
	copy(r, values)
	return r
}

func (r Reading) Dimensions() int {
	return len(r)
}

func (r Reading) Dim(idx int) float64 {
	return r[idx]
}

func (r Reading) Points() []float64 {
	return r
}

func (r Reading) Point() geom.Point {
	return geom.NewPoint(r)
}

// Strings formats every value with the shortest representation that parses
// back to the same float.
func (r Reading) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

// Prediction is a gesture class index produced by the classifier.
type Prediction int

func (p Prediction) String() string {
	return strconv.Itoa(int(p))
}

// Entry is one row of the collected-data buffer.
type Entry struct {
	Timestamp  time.Time  `json:"timestamp"`
	Reading    Reading    `json:"reading"`
	Prediction Prediction `json:"prediction"`
}

func NewEntry(ts time.Time, r Reading, p Prediction) Entry {
	return Entry{Timestamp: ts, Reading: r, Prediction: p}
}
