package reading

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Copies(t *testing.T) {
	values := []float64{1, 2, 3}
	r := New(values...)
	values[0] = 42
	assert.Equal(t, Reading{1, 2, 3}, r)
}

func TestReading_Strings(t *testing.T) {
	assert.Equal(t, []string{"512", "0.25", "1023.5"}, New(512, 0.25, 1023.5).Strings())
}

func TestEntry_JSON(t *testing.T) {
	ts := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	b, err := json.Marshal(NewEntry(ts, New(1, 2), 7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2021-03-01T10:00:00Z","reading":[1,2],"prediction":7}`, string(b))
}
