package metric

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

func countFor(t *testing.T, viewName string, tags ...tag.Tag) int64 {
	t.Helper()
	rows, err := view.RetrieveData(viewName)
	require.NoError(t, err)
	for _, row := range rows {
		if len(row.Tags) != len(tags) {
			continue
		}
		match := true
		for i := range tags {
			if row.Tags[i] != tags[i] {
				match = false
			}
		}
		if match {
			return row.Data.(*view.CountData).Value
		}
	}
	return 0
}

func TestRecordTick(t *testing.T) {
	require.NoError(t, Register())
	ctx := context.Background()
	before := countFor(t, TicksView.Name, tag.Tag{Key: KeyOutcome, Value: OutcomeParseError})

	RecordTick(ctx, OutcomeParseError, 3*time.Millisecond)
	RecordTick(ctx, OutcomeParseError, 4*time.Millisecond)
	RecordTick(ctx, OutcomeOK, time.Millisecond)

	require.Equal(t, before+2, countFor(t, TicksView.Name, tag.Tag{Key: KeyOutcome, Value: OutcomeParseError}))
}

func TestRecordFlushAndTelemetry(t *testing.T) {
	require.NoError(t, Register())
	ctx := context.Background()
	okTags := []tag.Tag{{Key: KeyResult, Value: resultOK}, {Key: KeySink, Value: "csv"}}
	errTags := []tag.Tag{{Key: KeyResult, Value: resultError}, {Key: KeySink, Value: "thingspeak"}}
	flushBefore := countFor(t, FlushesView.Name, okTags...)
	sendBefore := countFor(t, TelemetryView.Name, errTags...)

	RecordFlush(ctx, "csv", nil)
	RecordTelemetry(ctx, "thingspeak", errors.New("status 500"))

	require.Equal(t, flushBefore+1, countFor(t, FlushesView.Name, okTags...))
	require.Equal(t, sendBefore+1, countFor(t, TelemetryView.Name, errTags...))
}

func TestNewHandler(t *testing.T) {
	h, err := NewHandler()
	require.NoError(t, err)
	RecordTick(context.Background(), OutcomeOK, time.Millisecond)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := ioutil.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(string(body), "glove_ticks"), string(body))
}
