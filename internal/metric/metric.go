// Package metric records collector activity with OpenCensus and exposes it in
// Prometheus text format.
package metric

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Tick outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeTransferFailed = "transfer_failed"
	OutcomeParseError     = "parse_error"
	OutcomeClassifyError  = "classify_error"
	OutcomeUnknownGesture = "unknown_gesture"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	KeyOutcome = tag.MustNewKey("outcome")
	KeySink    = tag.MustNewKey("sink")
	KeyResult  = tag.MustNewKey("result")

	mTicks       = stats.Int64("glove/ticks", "Collector ticks by outcome", stats.UnitDimensionless)
	mTickLatency = stats.Float64("glove/tick_latency", "Time spent in a tick excluding the sleep", stats.UnitMilliseconds)
	mFlushes     = stats.Int64("glove/flushes", "Persistence flushes by sink and result", stats.UnitDimensionless)
	mTelemetry   = stats.Int64("glove/telemetry", "Telemetry sends by sink and result", stats.UnitDimensionless)
	mBuffered    = stats.Int64("glove/buffered_entries", "Entries held in the collected buffer", stats.UnitDimensionless)

	TicksView = &view.View{
		Name:        "ticks",
		Description: mTicks.Description(),
		Measure:     mTicks,
		TagKeys:     []tag.Key{KeyOutcome},
		Aggregation: view.Count(),
	}
	TickLatencyView = &view.View{
		Name:        "tick_latency",
		Description: mTickLatency.Description(),
		Measure:     mTickLatency,
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	}
	FlushesView = &view.View{
		Name:        "flushes",
		Description: mFlushes.Description(),
		Measure:     mFlushes,
		TagKeys:     []tag.Key{KeySink, KeyResult},
		Aggregation: view.Count(),
	}
	TelemetryView = &view.View{
		Name:        "telemetry",
		Description: mTelemetry.Description(),
		Measure:     mTelemetry,
		TagKeys:     []tag.Key{KeySink, KeyResult},
		Aggregation: view.Count(),
	}
	BufferedView = &view.View{
		Name:        "buffered_entries",
		Description: mBuffered.Description(),
		Measure:     mBuffered,
		Aggregation: view.LastValue(),
	}
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register registers the collector views once per process.
func Register() error {
	registerOnce.Do(func() {
		registerErr = view.Register(TicksView, TickLatencyView, FlushesView, TelemetryView, BufferedView)
	})
	return registerErr
}

func RecordTick(ctx context.Context, outcome string, elapsed time.Duration) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyOutcome, outcome)}, mTicks.M(1))
	stats.Record(ctx, mTickLatency.M(float64(elapsed)/float64(time.Millisecond)))
}

func RecordFlush(ctx context.Context, sink string, err error) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeySink, sink), tag.Upsert(KeyResult, result(err))}, mFlushes.M(1))
}

func RecordTelemetry(ctx context.Context, sink string, err error) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeySink, sink), tag.Upsert(KeyResult, result(err))}, mTelemetry.M(1))
}

func RecordBuffered(ctx context.Context, n int) {
	stats.Record(ctx, mBuffered.M(int64(n)))
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

// NewHandler registers the views and returns the Prometheus scrape handler.
func NewHandler() (http.Handler, error) {
	if err := Register(); err != nil {
		return nil, fmt.Errorf("register views: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "glove"})
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	return exporter, nil
}
