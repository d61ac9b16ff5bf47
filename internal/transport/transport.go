// Package transport defines how raw sensor frames reach the collector.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTransferFailed marks a tick whose frame could not be obtained. The
// collector treats it as an empty frame and moves on.
var ErrTransferFailed = errors.New("transfer failed")

// Transport yields one raw frame per call. seq is the collector's tick
// counter; transports that address frames by number use it, others ignore it.
type Transport interface {
	Next(ctx context.Context, seq uint64) (string, error)
	Close() error
}

type ProvideFn func(context.Context) (Transport, error)

type Kind string

const (
	KindPoll   Kind = "POLL"
	KindSerial Kind = "SERIAL"
	KindSim    Kind = "SIM"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindPoll, KindSerial, KindSim:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transport %q", s)
	}
}

// Failed wraps err so that errors.Is(err, ErrTransferFailed) holds.
func Failed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTransferFailed, fmt.Sprintf(format, args...))
}
