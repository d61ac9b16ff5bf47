package setup

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/classifier/artifact"
	"github.com/go-sod/glove/internal/collector"
	"github.com/go-sod/glove/internal/database"
	"github.com/go-sod/glove/internal/frame"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/reading"
	"github.com/go-sod/glove/internal/sink"
	"github.com/go-sod/glove/internal/sink/boltstore"
	"github.com/go-sod/glove/internal/sink/csvfile"
	"github.com/go-sod/glove/internal/sink/redispub"
	"github.com/go-sod/glove/internal/sink/thingspeak"
	"github.com/go-sod/glove/internal/speech"
	"github.com/go-sod/glove/internal/srvenv"
	"github.com/go-sod/glove/internal/transport"
	"github.com/go-sod/glove/internal/transport/poll"
	"github.com/go-sod/glove/internal/transport/serial"
	"github.com/go-sod/glove/internal/transport/sim"
	"github.com/go-sod/glove/internal/vocabulary"
)

type ClassifierConfigProvider interface {
	ClassifierConfig() *classifier.Config
}

type TransportConfigProvider interface {
	TransportKind() (transport.Kind, error)
	PollConfig() *poll.Config
	SerialConfig() *serial.Config
	SimConfig() *sim.Config
}

type FrameConfigProvider interface {
	FrameDelimiter() string
	FrameArity() int
}

// DatabaseConfigProvider returns nil when the bolt store is disabled.
type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

// SinkConfigProvider returns nil for every optional sink that is disabled.
type SinkConfigProvider interface {
	CSVConfig() *csvfile.Config
	ThingSpeakConfig() *thingspeak.Config
	RedisConfig() *redispub.Config
}

type SpeechConfigProvider interface {
	SpeechConfig() (*speech.Config, bool)
	VocabularyFile() string
}

type CollectorConfigProvider interface {
	CollectorConfig() *collector.Config
}

type validator interface {
	Validate() error
}

// Setup reads the environment into config and builds the providers of the
// service. Resources opened here are released by SrvEnv.Close.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	if v, ok := config.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	session := uuid.New()
	serverEnvOpts := []srvenv.Option{srvenv.WithSession(session)}
	env := srvenv.New(serverEnvOpts...)
	fail := func(err error) (*srvenv.SrvEnv, error) {
		_ = env.Close(ctx)
		return nil, err
	}

	var (
		classifierProvideFn classifier.ProvideFn
		modelPath           string
		vocab               *vocabulary.Vocabulary
		speaker             speech.Speaker
		persisters          []sink.Persister
		telemetry           []sink.Telemetry
	)

	if classifierConfigProvider, ok := config.(ClassifierConfigProvider); ok {
		logger.Info("Configuring classifier")
		cfg := classifierConfigProvider.ClassifierConfig()
		modelPath = cfg.ModelPath
		classifierProvideFn = ProvideClassifierFor(cfg)
		env = srvenv.WithClassifier(classifierProvideFn)(env)
	}

	if speechConfigProvider, ok := config.(SpeechConfigProvider); ok {
		logger.Info("Configuring vocabulary")
		v, err := LoadVocabulary(speechConfigProvider.VocabularyFile())
		if err != nil {
			return fail(err)
		}
		vocab = v
		env = srvenv.WithVocabulary(vocab)(env)

		cfg, enabled := speechConfigProvider.SpeechConfig()
		if enabled {
			logger.Info("Configuring speech output")
			s, err := speech.New(cfg, true)
			if err != nil {
				logger.Warnf("speech engine unavailable, phrases will only be logged: %v", err)
				s = speech.Log{}
			}
			speaker = s
		}
	}

	if sinkConfigProvider, ok := config.(SinkConfigProvider); ok {
		logger.Info("Configuring sinks")
		w, err := csvfile.New(sinkConfigProvider.CSVConfig().Path)
		if err != nil {
			return fail(err)
		}
		persisters = append(persisters, w)

		if cfg := sinkConfigProvider.ThingSpeakConfig(); cfg != nil {
			c, err := thingspeak.NewFromConfig(cfg)
			if err != nil {
				return fail(fmt.Errorf("unable create thingspeak sink: %w", err))
			}
			telemetry = append(telemetry, c)
		}
		if cfg := sinkConfigProvider.RedisConfig(); cfg != nil {
			opts := []redispub.Option{}
			if vocab != nil {
				opts = append(opts, redispub.WithPhrases(vocab.Lookup))
			}
			p, err := redispub.New(cfg, session, opts...)
			if err != nil {
				return fail(fmt.Errorf("unable create redis sink: %w", err))
			}
			telemetry = append(telemetry, p)
			env = srvenv.WithCloser(p)(env)
		}
	}

	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		if cfg := dbConfigProvider.DatabaseConfig(); cfg != nil {
			logger.Info("Configuring db")
			db, err := database.NewFromEnv(ctx, cfg)
			if err != nil {
				return fail(fmt.Errorf("unable to connect to database: %w", err))
			}
			env = srvenv.WithDatabase(db)(env)
			persisters = append(persisters, boltstore.New(db, session))
		}
	}

	frameConfigProvider, hasFrame := config.(FrameConfigProvider)
	transportConfigProvider, hasTransport := config.(TransportConfigProvider)
	collectorConfigProvider, hasCollector := config.(CollectorConfigProvider)
	if hasFrame && hasTransport && hasCollector && classifierProvideFn != nil {
		logger.Info("Configuring collector")
		parser, err := frame.NewParser(frameConfigProvider.FrameDelimiter(), frameConfigProvider.FrameArity())
		if err != nil {
			return fail(fmt.Errorf("unable create frame parser: %w", err))
		}
		transportProvideFn, err := ProvideTransportFor(transportConfigProvider, parser, modelPath)
		if err != nil {
			return fail(err)
		}
		cfg := collectorConfigProvider.CollectorConfig()
		opts := []collector.Option{
			collector.WithSession(session),
			collector.WithInterval(cfg.Interval),
			collector.WithFlushSize(cfg.FlushSize),
			collector.WithPersisters(persisters...),
			collector.WithTelemetry(telemetry...),
		}
		if speaker != nil {
			opts = append(opts, collector.WithSpeech(vocab, speaker))
		}
		env = srvenv.WithCollector(func(context.Context) (collector.Manager, error) {
			return collector.New(transportProvideFn, classifierProvideFn, parser, opts...)
		})(env)
	}

	return env, nil
}

// ProvideClassifierFor loads the model on first use and hands the same
// classifier to every caller.
func ProvideClassifierFor(cfg *classifier.Config) classifier.ProvideFn {
	var (
		once sync.Once
		cls  classifier.Classifier
		err  error
	)
	return func(ctx context.Context) (classifier.Classifier, error) {
		once.Do(func() {
			cls, err = classifier.Load(ctx, cfg)
		})
		return cls, err
	}
}

func ProvideTransportFor(provider TransportConfigProvider, parser *frame.Parser, modelPath string) (transport.ProvideFn, error) {
	kind, err := provider.TransportKind()
	if err != nil {
		return nil, err
	}
	switch kind {
	case transport.KindPoll:
		cfg := provider.PollConfig()
		return func(context.Context) (transport.Transport, error) {
			return poll.NewFromConfig(cfg)
		}, nil
	case transport.KindSerial:
		cfg := provider.SerialConfig()
		return func(ctx context.Context) (transport.Transport, error) {
			return serial.Open(ctx, *cfg)
		}, nil
	case transport.KindSim:
		cfg := provider.SimConfig()
		return func(context.Context) (transport.Transport, error) {
			centers, err := SimCenters(modelPath, parser.Arity())
			if err != nil {
				return nil, err
			}
			return sim.New(*cfg, centers, parser.Format)
		}, nil
	default:
		return nil, fmt.Errorf("unknown transport type: %s", kind)
	}
}

// SimCenters returns the model samples of the given arity as frame centers.
func SimCenters(modelPath string, arity int) ([]reading.Reading, error) {
	model, err := artifact.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model for simulation: %w", err)
	}
	centers := make([]reading.Reading, 0, len(model.Samples))
	for _, s := range model.Samples {
		if len(s.Features) == arity {
			centers = append(centers, reading.New(s.Features...))
		}
	}
	if len(centers) == 0 {
		return nil, fmt.Errorf("model %s has no samples with %d values", modelPath, arity)
	}
	return centers, nil
}

// LoadVocabulary reads path, or returns the built-in phrases when it is empty.
func LoadVocabulary(path string) (*vocabulary.Vocabulary, error) {
	if path == "" {
		return vocabulary.Default(), nil
	}
	v, err := vocabulary.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unable load vocabulary: %w", err)
	}
	return v, nil
}
