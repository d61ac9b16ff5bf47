package speech

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "say.sh")
	require.NoError(t, ioutil.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestCommand_Speak(t *testing.T) {
	out := filepath.Join(t.TempDir(), "spoken")
	script := writeScript(t, `printf '%s|%s' "$1" "$2" > `+out+"\n")

	c, err := NewCommand(script, []string{"-v"}, time.Second)
	require.NoError(t, err)
	require.NoError(t, c.Speak(context.Background(), "good day"))

	b, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "-v|good day", string(b))
}

func TestCommand_SpeakFailure(t *testing.T) {
	script := writeScript(t, "echo broken >&2\nexit 3\n")
	c, err := NewCommand(script, nil, time.Second)
	require.NoError(t, err)
	err = c.Speak(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
}

func TestCommand_SpeakTimeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")
	c, err := NewCommand(script, nil, 50*time.Millisecond)
	require.NoError(t, err)
	start := time.Now()
	require.Error(t, c.Speak(context.Background(), "hello"))
	require.Less(t, int64(time.Since(start)), int64(4*time.Second))
}

func TestNew(t *testing.T) {
	s, err := New(&Config{}, false)
	require.NoError(t, err)
	require.IsType(t, Log{}, s)
	require.NoError(t, s.Speak(context.Background(), "hello"))

	_, err = New(&Config{Command: "glove-no-such-tts-engine"}, true)
	require.Error(t, err)

	_, err = NewCommand(" ", nil, 0)
	require.Error(t, err)

	on, off := true, false
	require.True(t, (&Config{}).IsEnabled(true))
	require.True(t, (&Config{Enabled: &on}).IsEnabled(false))
	require.False(t, (&Config{Enabled: &off}).IsEnabled(true))
}
