// Package collector runs the polling loop: read a frame, parse it, classify
// the reading and fan the prediction out to the sinks, once per tick until
// interrupted.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/frame"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/metric"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/sink"
	"github.com/go-sod/glove/internal/speech"
	"github.com/go-sod/glove/internal/transport"
	"github.com/go-sod/glove/internal/vocabulary"
)

// ErrFatal wraps every failure that prevents the loop from reaching RUNNING.
var ErrFatal = errors.New("collector cannot start")

type State int32

const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Manager is the collector as seen by the process: Run blocks until ctx is
// cancelled and the loop has shut down.
type Manager interface {
	Run(ctx context.Context) error
	State() State
	Stats() Stats
}

type Stats struct {
	Session   uuid.UUID `json:"session"`
	State     string    `json:"state"`
	Ticks     uint64    `json:"ticks"`
	Collected uint64    `json:"collected"`
}

type Option func(*manager)

func WithInterval(d time.Duration) Option {
	return func(m *manager) {
		m.interval = d
	}
}

func WithFlushSize(n int) Option {
	return func(m *manager) {
		m.flushSize = n
	}
}

func WithPersisters(p ...sink.Persister) Option {
	return func(m *manager) {
		m.persisters = append(m.persisters, p...)
	}
}

func WithTelemetry(t ...sink.Telemetry) Option {
	return func(m *manager) {
		m.telemetry = append(m.telemetry, t...)
	}
}

// WithSpeech enables phrase lookup and speech output for every prediction.
func WithSpeech(v *vocabulary.Vocabulary, s speech.Speaker) Option {
	return func(m *manager) {
		m.vocabulary = v
		m.speaker = s
	}
}

func WithSession(id uuid.UUID) Option {
	return func(m *manager) {
		m.session = id
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *manager) {
		m.now = now
	}
}

var _ Manager = (*manager)(nil)

func New(transportFn transport.ProvideFn, classifierFn classifier.ProvideFn, parser *frame.Parser, opts ...Option) (*manager, error) {
	if transportFn == nil {
		return nil, fmt.Errorf("transport provider is not defined")
	}
	if classifierFn == nil {
		return nil, fmt.Errorf("classifier provider is not defined")
	}
	if parser == nil {
		return nil, fmt.Errorf("frame parser is not defined")
	}
	m := &manager{
		transportFn:  transportFn,
		classifierFn: classifierFn,
		parser:       parser,
		interval:     time.Second,
		flushSize:    10,
		session:      uuid.New(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.flushSize <= 0 {
		return nil, fmt.Errorf("flush size must be positive, got %d", m.flushSize)
	}
	if m.interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %s", m.interval)
	}
	if m.vocabulary != nil && m.speaker == nil {
		m.speaker = speech.Log{}
	}
	m.flushed = make([]int, len(m.persisters))
	return m, nil
}

type manager struct {
	transportFn  transport.ProvideFn
	classifierFn classifier.ProvideFn
	parser       *frame.Parser
	persisters   []sink.Persister
	telemetry    []sink.Telemetry
	vocabulary   *vocabulary.Vocabulary
	speaker      speech.Speaker
	interval     time.Duration
	flushSize    int
	session      uuid.UUID
	now          func() time.Time

	// loop goroutine only
	transport  transport.Transport
	classifier classifier.Classifier
	buffer     []reading.Entry
	counter    uint64
	// buffer length covered by the last successful flush, per persister
	flushed []int

	state     atomic.Int32
	ticks     atomic.Uint64
	collected atomic.Uint64
}

func (m *manager) State() State {
	return State(m.state.Load())
}

func (m *manager) Stats() Stats {
	return Stats{
		Session:   m.session,
		State:     m.State().String(),
		Ticks:     m.ticks.Load(),
		Collected: m.collected.Load(),
	}
}

// Entries returns a copy of the collected buffer. It must not be called while
// Run is active.
func (m *manager) Entries() []reading.Entry {
	return append([]reading.Entry(nil), m.buffer...)
}

func (m *manager) setState(ctx context.Context, s State) {
	m.state.Store(int32(s))
	logging.FromContext(ctx).Infof("collector %s: %s", m.session, s)
}

func (m *manager) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).With("session", m.session.String())
	ctx = logging.WithLogger(ctx, logger)

	m.setState(ctx, StateStarting)
	if err := m.start(ctx); err != nil {
		m.setState(ctx, StateStopped)
		return fmt.Errorf("%w: %v", ErrFatal, err)
	}

	m.setState(ctx, StateRunning)
	logger.Info("Starting gesture recognition... Press Ctrl+C to stop.")
	// ticks are never interrupted midway; cancellation is seen between ticks
	tickCtx := context.WithoutCancel(ctx)
	for {
		m.tick(tickCtx)
		if !m.sleep(ctx) {
			break
		}
	}

	m.setState(tickCtx, StateStopping)
	m.shutdown(tickCtx)
	m.setState(tickCtx, StateStopped)
	return nil
}

func (m *manager) start(ctx context.Context) error {
	cls, err := m.classifierFn(ctx)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}
	if cls.Dimensions() != m.parser.Arity() {
		return fmt.Errorf("model expects %d values per reading, frames carry %d", cls.Dimensions(), m.parser.Arity())
	}
	tr, err := m.transportFn(ctx)
	if err != nil {
		return fmt.Errorf("open transport: %w", err)
	}
	m.classifier = cls
	m.transport = tr
	return nil
}

func (m *manager) sleep(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := time.NewTimer(m.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *manager) tick(ctx context.Context) {
	start := time.Now()
	outcome := m.process(ctx)
	metric.RecordTick(ctx, outcome, time.Since(start))
	logging.FromContext(ctx).Debugf("Counter: %d", m.counter)
	m.counter++
	m.ticks.Store(m.counter)
}

func (m *manager) process(ctx context.Context) string {
	logger := logging.FromContext(ctx)

	raw, err := m.transport.Next(ctx, m.counter)
	if err != nil {
		logger.Warnf("tick %d: %v", m.counter, err)
		return metric.OutcomeTransferFailed
	}
	logger.Debugf("Received data: %q", raw)

	values, err := m.parser.Parse(raw)
	if err != nil {
		logger.Warnf("tick %d: invalid data format: %v", m.counter, err)
		return metric.OutcomeParseError
	}

	prediction, err := m.classifier.Predict(values)
	if err != nil {
		logger.Errorf("tick %d: classify %v: %v", m.counter, values, err)
		return metric.OutcomeClassifyError
	}
	logger.Infof("Sensor values: %v, predicted gesture: %d", []float64(values), prediction)

	m.buffer = append(m.buffer, reading.NewEntry(m.now(), values, prediction))
	m.collected.Store(uint64(len(m.buffer)))
	metric.RecordBuffered(ctx, len(m.buffer))
	if len(m.buffer)%m.flushSize == 0 {
		m.flush(ctx, false)
	}

	for _, t := range m.telemetry {
		err := t.Send(ctx, values, prediction)
		metric.RecordTelemetry(ctx, t.Name(), err)
		if err != nil {
			logger.Errorf("tick %d: %s telemetry: %v", m.counter, t.Name(), err)
		}
	}

	if m.vocabulary == nil {
		return metric.OutcomeOK
	}
	phrase, err := m.vocabulary.Lookup(prediction)
	if err != nil {
		logger.Warnf("Unknown gesture index: %d", prediction)
		return metric.OutcomeUnknownGesture
	}
	logger.Infof("Predicted gesture: %d - %q", prediction, phrase)
	if err := m.speaker.Speak(ctx, phrase); err != nil {
		logger.Errorf("tick %d: speech: %v", m.counter, err)
	}
	return metric.OutcomeOK
}

// flush hands the full buffer to the persisters. With pendingOnly set, only
// persisters whose last successful flush does not cover the buffer are called.
func (m *manager) flush(ctx context.Context, pendingOnly bool) {
	logger := logging.FromContext(ctx)
	snapshot := m.buffer[:len(m.buffer):len(m.buffer)]
	for i, p := range m.persisters {
		if pendingOnly && m.flushed[i] >= len(snapshot) {
			continue
		}
		err := p.Flush(ctx, snapshot)
		metric.RecordFlush(ctx, p.Name(), err)
		if err != nil {
			logger.Errorf("%s flush of %d entries failed: %v", p.Name(), len(snapshot), err)
			continue
		}
		m.flushed[i] = len(snapshot)
	}
}

func (m *manager) shutdown(ctx context.Context) {
	logger := logging.FromContext(ctx)
	logger.Info("Stopping data collection...")
	if len(m.buffer) > 0 {
		m.flush(ctx, true)
	}
	if err := m.transport.Close(); err != nil {
		logger.Errorf("close transport: %v", err)
	}
	logger.Infof("Total data points collected: %d", len(m.buffer))
}

type ProvideFn func(context.Context) (Manager, error)
