package glove

import (
	"fmt"
	"strings"

	"github.com/go-sod/glove/internal/classifier"
	"github.com/go-sod/glove/internal/collector"
	"github.com/go-sod/glove/internal/database"
	"github.com/go-sod/glove/internal/frame"
	"github.com/go-sod/glove/internal/logging"
	"github.com/go-sod/glove/internal/predict"
	"github.com/go-sod/glove/internal/setup"
	"github.com/go-sod/glove/internal/sink/csvfile"
	"github.com/go-sod/glove/internal/sink/redispub"
	"github.com/go-sod/glove/internal/sink/thingspeak"
	"github.com/go-sod/glove/internal/speech"
	"github.com/go-sod/glove/internal/transport"
	"github.com/go-sod/glove/internal/transport/poll"
	"github.com/go-sod/glove/internal/transport/serial"
	"github.com/go-sod/glove/internal/transport/sim"
)

var (
	_ setup.ClassifierConfigProvider = (*Config)(nil)
	_ setup.TransportConfigProvider  = (*Config)(nil)
	_ setup.FrameConfigProvider      = (*Config)(nil)
	_ setup.DatabaseConfigProvider   = (*Config)(nil)
	_ setup.SinkConfigProvider       = (*Config)(nil)
	_ setup.SpeechConfigProvider     = (*Config)(nil)
	_ setup.CollectorConfigProvider  = (*Config)(nil)
)

type Profile string

const (
	ProfileWiFi   Profile = "WIFI"
	ProfileSerial Profile = "SERIAL"
)

// Config holds every setting of the glove service. Transport, frame format,
// telemetry and speech default from the profile; explicit settings win.
type Config struct {
	ProfileType    Profile `envconfig:"GLOVE_PROFILE" default:"WIFI"`
	TransportType  string  `envconfig:"GLOVE_TRANSPORT"`
	Delimiter      string  `envconfig:"GLOVE_FRAME_DELIMITER"`
	Arity          int     `envconfig:"GLOVE_FRAME_ARITY"`
	VocabularyPath string  `envconfig:"GLOVE_VOCABULARY_PATH"`
	SrvAddr        string  `envconfig:"GLOVE_ADDR" default:":8787"`
	GRPCAddr       string  `envconfig:"GLOVE_GRPC_ADDR" default:":8788"`
	BoltEnabled    bool    `envconfig:"GLOVE_BOLT_ENABLED"`

	Log        logging.Config
	Collector  collector.Config
	Classifier classifier.Config
	Predict    predict.Config
	Poll       poll.Config
	Serial     serial.Config
	Sim        sim.Config
	CSV        csvfile.Config
	Database   database.Config
	ThingSpeak thingspeak.Config
	Redis      redispub.Config
	Speech     speech.Config
}

func (c *Config) Profile() (Profile, error) {
	switch p := Profile(strings.ToUpper(strings.TrimSpace(string(c.ProfileType)))); p {
	case ProfileWiFi, ProfileSerial:
		return p, nil
	default:
		return "", fmt.Errorf("unknown profile %q", c.ProfileType)
	}
}

func (c *Config) isSerial() bool {
	p, err := c.Profile()
	return err == nil && p == ProfileSerial
}

func (c *Config) ClassifierConfig() *classifier.Config {
	return &c.Classifier
}

func (c *Config) TransportKind() (transport.Kind, error) {
	if c.TransportType != "" {
		return transport.ParseKind(c.TransportType)
	}
	if c.isSerial() {
		return transport.KindSerial, nil
	}
	return transport.KindPoll, nil
}

func (c *Config) PollConfig() *poll.Config {
	return &c.Poll
}

func (c *Config) SerialConfig() *serial.Config {
	return &c.Serial
}

func (c *Config) SimConfig() *sim.Config {
	return &c.Sim
}

func (c *Config) FrameDelimiter() string {
	if c.Delimiter != "" {
		return c.Delimiter
	}
	if c.isSerial() {
		return frame.DelimiterSerial
	}
	return frame.DelimiterWiFi
}

func (c *Config) FrameArity() int {
	if c.Arity > 0 {
		return c.Arity
	}
	if c.isSerial() {
		return 5
	}
	return 3
}

func (c *Config) DatabaseConfig() *database.Config {
	if !c.BoltEnabled {
		return nil
	}
	return &c.Database
}

// CSVConfig names the output after the profile unless GLOVE_CSV_PATH is set.
func (c *Config) CSVConfig() *csvfile.Config {
	cfg := c.CSV
	if cfg.Path == "" {
		cfg.Path = "data/wifi_collected_data.csv"
		if c.isSerial() {
			cfg.Path = "data/serial_collected_data.csv"
		}
	}
	return &cfg
}

// ThingSpeakConfig is enabled by default on the WiFi profile once an API key
// is configured.
func (c *Config) ThingSpeakConfig() *thingspeak.Config {
	if !c.ThingSpeak.IsEnabled(!c.isSerial() && c.ThingSpeak.APIKey != "") {
		return nil
	}
	return &c.ThingSpeak
}

func (c *Config) RedisConfig() *redispub.Config {
	if !c.Redis.Enabled {
		return nil
	}
	return &c.Redis
}

func (c *Config) SpeechConfig() (*speech.Config, bool) {
	return &c.Speech, c.Speech.IsEnabled(c.isSerial())
}

func (c *Config) VocabularyFile() string {
	return c.VocabularyPath
}

func (c *Config) CollectorConfig() *collector.Config {
	return &c.Collector
}

func (c *Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return err
	}
	if _, err := c.TransportKind(); err != nil {
		return err
	}
	if c.Arity < 0 {
		return fmt.Errorf("frame arity must not be negative, got %d", c.Arity)
	}
	return nil
}
