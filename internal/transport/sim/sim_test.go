package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-sod/glove/internal/frame"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/transport"
)

func TestTransport_Next(t *testing.T) {
	parser, err := frame.NewParser(frame.DelimiterWiFi, 3)
	require.NoError(t, err)
	centers := []reading.Reading{reading.New(100, 200, 300), reading.New(400, 500, 600)}

	tr, err := New(Config{Jitter: 5}, centers, parser.Format)
	require.NoError(t, err)
	defer tr.Close()

	for i := uint64(0); i < 200; i++ {
		raw, err := tr.Next(context.Background(), i)
		require.NoError(t, err)
		r, err := parser.Parse(raw)
		require.NoError(t, err, raw)

		near := false
		for _, c := range centers {
			ok := true
			for d := range c {
				if r[d] < c[d]-5.01 || r[d] > c[d]+5.01 {
					ok = false
				}
			}
			near = near || ok
		}
		require.True(t, near, "frame %q is not near any center", raw)
	}
}

func TestTransport_AlwaysFails(t *testing.T) {
	tr, err := New(Config{FailurePercent: 100}, []reading.Reading{reading.New(1)}, func(r reading.Reading) string { return "" })
	require.NoError(t, err)
	_, err = tr.Next(context.Background(), 0)
	require.True(t, errors.Is(err, transport.ErrTransferFailed))
}

func TestTransport_AlwaysMalformed(t *testing.T) {
	tr, err := New(Config{MalformedPercent: 100}, []reading.Reading{reading.New(1, 2, 3)}, func(r reading.Reading) string { return "" })
	require.NoError(t, err)
	raw, err := tr.Next(context.Background(), 0)
	require.NoError(t, err)
	_, err = frame.Parse(raw, frame.DelimiterWiFi, 3)
	var perr *frame.ParseError
	require.True(t, errors.As(err, &perr))
}

func TestNew(t *testing.T) {
	format := func(r reading.Reading) string { return "" }
	_, err := New(Config{}, nil, format)
	require.Error(t, err)
	_, err = New(Config{}, []reading.Reading{reading.New(1)}, nil)
	require.Error(t, err)
	_, err = New(Config{MalformedPercent: 60, FailurePercent: 50}, []reading.Reading{reading.New(1)}, format)
	require.Error(t, err)
	_, err = New(Config{Jitter: -1}, []reading.Reading{reading.New(1)}, format)
	require.Error(t, err)
}
