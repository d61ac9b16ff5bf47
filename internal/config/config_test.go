package glove

import (
	"os"
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/require"

	"github.com/go-sod/glove/internal/frame"
	"github.com/go-sod/glove/internal/transport"
)

func process(t *testing.T, env map[string]string) *Config {
	t.Helper()
	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
		k := k
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
	cfg := &Config{}
	require.NoError(t, envconfig.Process("", cfg))
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestConfig_WiFiProfile(t *testing.T) {
	cfg := process(t, map[string]string{"GLOVE_THINGSPEAK_API_KEY": "KEY"})

	kind, err := cfg.TransportKind()
	require.NoError(t, err)
	require.Equal(t, transport.KindPoll, kind)
	require.Equal(t, frame.DelimiterWiFi, cfg.FrameDelimiter())
	require.Equal(t, 3, cfg.FrameArity())
	require.NotNil(t, cfg.ThingSpeakConfig())
	require.Equal(t, "KEY", cfg.ThingSpeakConfig().APIKey)
	_, speak := cfg.SpeechConfig()
	require.False(t, speak)
	require.Nil(t, cfg.DatabaseConfig())
	require.Nil(t, cfg.RedisConfig())

	require.Equal(t, "http://192.168.137.233/", cfg.Poll.BaseURL)
	require.Equal(t, 10, cfg.Collector.FlushSize)
	require.Equal(t, "data/wifi_collected_data.csv", cfg.CSVConfig().Path)
}

func TestConfig_WiFiWithoutAPIKeyHasNoTelemetry(t *testing.T) {
	cfg := process(t, nil)
	require.Nil(t, cfg.ThingSpeakConfig())
}

func TestConfig_SerialProfile(t *testing.T) {
	cfg := process(t, map[string]string{
		"GLOVE_PROFILE":     "serial",
		"GLOVE_SERIAL_PORT": "COM3",
	})

	kind, err := cfg.TransportKind()
	require.NoError(t, err)
	require.Equal(t, transport.KindSerial, kind)
	require.Equal(t, frame.DelimiterSerial, cfg.FrameDelimiter())
	require.Equal(t, 5, cfg.FrameArity())
	require.Nil(t, cfg.ThingSpeakConfig())
	_, speak := cfg.SpeechConfig()
	require.True(t, speak)
	require.Equal(t, "COM3", cfg.Serial.Port)
	require.Equal(t, 9600, cfg.Serial.BaudRate)
	require.Equal(t, "data/serial_collected_data.csv", cfg.CSVConfig().Path)
}

func TestConfig_ExplicitSettingsWin(t *testing.T) {
	cfg := process(t, map[string]string{
		"GLOVE_PROFILE":            "SERIAL",
		"GLOVE_TRANSPORT":          "sim",
		"GLOVE_FRAME_DELIMITER":    ";",
		"GLOVE_FRAME_ARITY":        "4",
		"GLOVE_SPEECH_ENABLED":     "false",
		"GLOVE_THINGSPEAK_ENABLED": "true",
		"GLOVE_BOLT_ENABLED":       "true",
		"GLOVE_REDIS_ENABLED":      "true",
		"GLOVE_CSV_PATH":           "out/glove.csv",
	})

	kind, err := cfg.TransportKind()
	require.NoError(t, err)
	require.Equal(t, transport.KindSim, kind)
	require.Equal(t, ";", cfg.FrameDelimiter())
	require.Equal(t, 4, cfg.FrameArity())
	_, speak := cfg.SpeechConfig()
	require.False(t, speak)
	require.NotNil(t, cfg.ThingSpeakConfig())
	require.NotNil(t, cfg.DatabaseConfig())
	require.NotNil(t, cfg.RedisConfig())
	require.Equal(t, "out/glove.csv", cfg.CSVConfig().Path)
}

func TestConfig_Validate(t *testing.T) {
	require.Error(t, (&Config{ProfileType: "BLUETOOTH"}).Validate())
	require.Error(t, (&Config{ProfileType: ProfileWiFi, TransportType: "carrier-pigeon"}).Validate())
	require.Error(t, (&Config{ProfileType: ProfileWiFi, Arity: -1}).Validate())
}
