// Package serial reads newline-terminated frames from a glove attached to a
// serial port.
package serial

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.bug.st/serial"

	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/transport"
)

// pollSlice bounds a single port read so the line deadline is honoured.
const pollSlice = 100 * time.Millisecond

// maxLineBytes caps an unterminated line; a frame is a handful of numbers.
const maxLineBytes = 4 << 10

type Config struct {
	Port        string        `envconfig:"GLOVE_SERIAL_PORT" default:"/dev/ttyUSB0"`
	BaudRate    int           `envconfig:"GLOVE_SERIAL_BAUD_RATE" default:"9600"`
	ReadTimeout time.Duration `envconfig:"GLOVE_SERIAL_READ_TIMEOUT" default:"5s"`
	// The board resets when the port opens and needs time before it writes
	Warmup time.Duration `envconfig:"GLOVE_SERIAL_WARMUP" default:"2s"`
}

// Port is the subset of serial.Port the transport needs.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

type OpenFn func(name string, baud int) (Port, error)

func openDevice(name string, baud int) (Port, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	return p, nil
}

type Option func(*Transport)

func WithOpenFn(fn OpenFn) Option {
	return func(t *Transport) {
		t.open = fn
	}
}

var _ transport.Transport = (*Transport)(nil)

type Transport struct {
	cfg     Config
	open    OpenFn
	port    Port
	buf     []byte
	pending []byte
}

// Open opens the configured device and waits out the warm-up. Failure here is
// fatal for the collector.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Transport, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial port is not defined")
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", cfg.BaudRate)
	}
	t := &Transport{cfg: cfg, open: openDevice, buf: make([]byte, 256)}
	for _, opt := range opts {
		opt(t)
	}

	logger := logging.FromContext(ctx)
	logger.Infof("Connecting to glove on %s at %d baud", cfg.Port, cfg.BaudRate)
	port, err := t.open(cfg.Port, cfg.BaudRate)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	slice := pollSlice
	if cfg.ReadTimeout > 0 && cfg.ReadTimeout < slice {
		slice = cfg.ReadTimeout
	}
	if err := port.SetReadTimeout(slice); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", cfg.Port, err)
	}
	t.port = port

	if cfg.Warmup > 0 {
		timer := time.NewTimer(cfg.Warmup)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			_ = port.Close()
			return nil, ctx.Err()
		}
	}
	logger.Infof("Serial port %s opened", cfg.Port)
	return t, nil
}

// Next returns the next line without its terminator. Bytes of an incomplete
// line stay buffered for the following call unless they exceed maxLineBytes.
// Lines that are not valid UTF-8 are transfer failures.
func (t *Transport) Next(ctx context.Context, _ uint64) (string, error) {
	var deadline time.Time
	if t.cfg.ReadTimeout > 0 {
		deadline = time.Now().Add(t.cfg.ReadTimeout)
	}
	for {
		if line, ok := t.line(); ok {
			if !utf8.ValidString(line) {
				return "", transport.Failed("invalid UTF-8 in frame from %s: %q", t.cfg.Port, line)
			}
			return line, nil
		}
		if len(t.pending) > maxLineBytes {
			n := len(t.pending)
			t.pending = t.pending[:0]
			return "", transport.Failed("dropped %d bytes from %s without a line terminator", n, t.cfg.Port)
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return "", transport.Failed("no complete line from %s within %s", t.cfg.Port, t.cfg.ReadTimeout)
		}
		if err := ctx.Err(); err != nil {
			return "", transport.Failed("%v", err)
		}
		n, err := t.port.Read(t.buf)
		if err != nil {
			return "", transport.Failed("read %s: %v", t.cfg.Port, err)
		}
		t.pending = append(t.pending, t.buf[:n]...)
	}
}

func (t *Transport) line() (string, bool) {
	idx := bytes.IndexByte(t.pending, '\n')
	if idx < 0 {
		return "", false
	}
	line := strings.TrimSuffix(string(t.pending[:idx]), "\r")
	t.pending = append(t.pending[:0], t.pending[idx+1:]...)
	return line, true
}

func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	return t.port.Close()
}
