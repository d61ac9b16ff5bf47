package srvenv

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/collector"
	"github.com/go-sod/glove/internal/database"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/vocabulary"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	session    uuid.UUID
	database   *database.DB
	classifier classifier.ProvideFn
	collector  collector.ProvideFn
	vocabulary *vocabulary.Vocabulary
	closers    []io.Closer
}

func (s *SrvEnv) Session() uuid.UUID {
	return s.session
}

func (s *SrvEnv) ProvideClassifier() classifier.ProvideFn {
	return s.classifier
}

func (s *SrvEnv) ProvideCollector() collector.ProvideFn {
	return s.collector
}

func (s *SrvEnv) Vocabulary() *vocabulary.Vocabulary {
	return s.vocabulary
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithSession(id uuid.UUID) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.session = id
		return s
	}
}

func WithClassifier(fn classifier.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.classifier = fn
		return s
	}
}

func WithCollector(fn collector.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.collector = fn
		return s
	}
}

func WithVocabulary(v *vocabulary.Vocabulary) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.vocabulary = v
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

// WithCloser registers a resource released by Close.
func WithCloser(c io.Closer) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.closers = append(s.closers, c)
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	logger := logging.FromContext(ctx)
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			logger.Errorf("close resource: %v", err)
		}
	}
	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
