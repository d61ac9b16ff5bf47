// Package redispub publishes predictions as JSON messages on a Redis channel.
package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/sink"
)

type Config struct {
	Enabled  bool   `envconfig:"GLOVE_REDIS_ENABLED"`
	Addr     string `envconfig:"GLOVE_REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"GLOVE_REDIS_PASSWORD"`
	DB       int    `envconfig:"GLOVE_REDIS_DB"`
	Channel  string `envconfig:"GLOVE_REDIS_CHANNEL" default:"glove:predictions"`
}

type Message struct {
	Session    uuid.UUID          `json:"session"`
	Values     []float64          `json:"values"`
	Prediction reading.Prediction `json:"prediction"`
	Phrase     string             `json:"phrase,omitempty"`
	SentAt     time.Time          `json:"sentAt"`
}

// PhraseFn resolves a prediction to its phrase; an error leaves it empty.
type PhraseFn func(reading.Prediction) (string, error)

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

type Option func(*Publisher)

func WithPhrases(fn PhraseFn) Option {
	return func(p *Publisher) {
		p.phrase = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

var _ sink.Telemetry = (*Publisher)(nil)

type Publisher struct {
	client  publisher
	channel string
	session uuid.UUID
	phrase  PhraseFn
	now     func() time.Time
}

func New(cfg *Config, session uuid.UUID, opts ...Option) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newPublisher(client, cfg.Channel, session, opts...)
}

func newPublisher(client publisher, channel string, session uuid.UUID, opts ...Option) (*Publisher, error) {
	if channel == "" {
		return nil, fmt.Errorf("redis channel is not defined")
	}
	p := &Publisher{client: client, channel: channel, session: session, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Publisher) Name() string { return "redis" }

func (p *Publisher) Send(ctx context.Context, r reading.Reading, pred reading.Prediction) error {
	msg := Message{
		Session:    p.session,
		Values:     r,
		Prediction: pred,
		SentAt:     p.now(),
	}
	if p.phrase != nil {
		if phrase, err := p.phrase(pred); err == nil {
			msg.Phrase = phrase
		}
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal redis message: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
