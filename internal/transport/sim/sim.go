// Package sim generates synthetic frames for dry runs without a glove.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/valyala/fastrand"

	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/transport"
)

type Config struct {
	// Maximum absolute deviation added to each value of a chosen center
	Jitter float64 `envconfig:"GLOVE_SIM_JITTER" default:"5"`
	// Percentage of ticks that yield a malformed frame
	MalformedPercent uint32 `envconfig:"GLOVE_SIM_MALFORMED_PERCENT" default:"5"`
	// Percentage of ticks that fail as a transfer error
	FailurePercent uint32 `envconfig:"GLOVE_SIM_FAILURE_PERCENT" default:"2"`
}

// FormatFn renders a reading in the wire format of the active profile.
type FormatFn func(reading.Reading) string

var _ transport.Transport = (*Transport)(nil)

type Transport struct {
	cfg     Config
	centers []reading.Reading
	format  FormatFn
}

// New draws frames around centers, typically the model's training samples.
func New(cfg Config, centers []reading.Reading, format FormatFn) (*Transport, error) {
	if len(centers) == 0 {
		return nil, fmt.Errorf("sim transport needs at least one center")
	}
	if format == nil {
		return nil, fmt.Errorf("sim transport format function is not defined")
	}
	if cfg.MalformedPercent+cfg.FailurePercent > 100 {
		return nil, fmt.Errorf("malformed and failure percentages exceed 100")
	}
	if cfg.Jitter < 0 || math.IsNaN(cfg.Jitter) {
		return nil, fmt.Errorf("invalid jitter %v", cfg.Jitter)
	}
	return &Transport{cfg: cfg, centers: centers, format: format}, nil
}

func (t *Transport) Next(_ context.Context, seq uint64) (string, error) {
	roll := fastrand.Uint32n(100)
	switch {
	case roll < t.cfg.FailurePercent:
		return "", transport.Failed("simulated drop at tick %d", seq)
	case roll < t.cfg.FailurePercent+t.cfg.MalformedPercent:
		return "bad-data", nil
	}

	center := t.centers[fastrand.Uint32n(uint32(len(t.centers)))]
	values := make([]float64, len(center))
	for i, v := range center {
		// flex sensor readings are never negative
		values[i] = math.Max(0, math.Round((v+t.jitter())*100)/100)
	}
	return t.format(reading.New(values...)), nil
}

func (t *Transport) jitter() float64 {
	if t.cfg.Jitter == 0 {
		return 0
	}
	u := float64(fastrand.Uint32()) / float64(math.MaxUint32)
	return (2*u - 1) * t.cfg.Jitter
}

func (t *Transport) Close() error {
	return nil
}
