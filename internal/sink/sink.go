// Package sink holds the outputs of the collector: persistence sinks receive
// the whole collected buffer, telemetry sinks receive each prediction.
package sink

import (
	"context"
	"strconv"

	"github.com/go-sod/glove/internal/reading"
)

// Persister durably stores a complete snapshot of entries. A failed flush
// leaves the on-disk state as it was before the call.
type Persister interface {
	Name() string
	Flush(ctx context.Context, entries []reading.Entry) error
}

// Telemetry forwards one prediction. Implementations make a single attempt.
type Telemetry interface {
	Name() string
	Send(ctx context.Context, r reading.Reading, p reading.Prediction) error
}

// TimestampLayout is how entries are timestamped in tabular output.
const TimestampLayout = "2006-01-02 15:04:05"

// Header returns the column names for readings of the given arity.
func Header(dims int) []string {
	header := make([]string, 0, dims+2)
	header = append(header, "Timestamp")
	for i := 1; i <= dims; i++ {
		header = append(header, "V"+strconv.Itoa(i))
	}
	return append(header, "Prediction")
}

