// Package speech hands recognised phrases to a text-to-speech engine.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-sod/glove/internal/logging"
)

type Config struct {
	// Unset means the deployment profile decides
	Enabled *bool         `envconfig:"GLOVE_SPEECH_ENABLED"`
	Command string        `envconfig:"GLOVE_SPEECH_COMMAND" default:"espeak"`
	Args    []string      `envconfig:"GLOVE_SPEECH_ARGS"`
	Timeout time.Duration `envconfig:"GLOVE_SPEECH_TIMEOUT" default:"10s"`
}

// Speaker blocks until the phrase has been spoken or fails.
type Speaker interface {
	Speak(ctx context.Context, phrase string) error
}

// Command speaks by running an external program with the phrase as its last
// argument, e.g. espeak or say.
type Command struct {
	name    string
	args    []string
	timeout time.Duration
}

func NewCommand(name string, args []string, timeout time.Duration) (*Command, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("speech command is not defined")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("speech command %q: %w", name, err)
	}
	return &Command{name: path, args: args, timeout: timeout}, nil
}

func (c *Command) Speak(ctx context.Context, phrase string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	args := append(append([]string(nil), c.args...), phrase)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speak %q: %w: %s", phrase, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Log only writes the phrase to the log. It is used when no speech engine is
// configured.
type Log struct{}

func (Log) Speak(ctx context.Context, phrase string) error {
	logging.FromContext(ctx).Infof("Speaking: %q", phrase)
	return nil
}

// IsEnabled returns the explicit setting, or def when none was given.
func (c *Config) IsEnabled(def bool) bool {
	if c.Enabled == nil {
		return def
	}
	return *c.Enabled
}

// New returns a Command speaker when speech is enabled, otherwise Log.
func New(cfg *Config, enabled bool) (Speaker, error) {
	if !enabled {
		return Log{}, nil
	}
	return NewCommand(cfg.Command, cfg.Args, cfg.Timeout)
}
