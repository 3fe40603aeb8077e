package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iabetor/tts-mcp/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tts-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.TTS.Kitten.ModelDir = t.TempDir()
	cfg.History.DBPath = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

func toolNames(a *app) []string {
	var names []string
	for _, def := range a.registry().Definitions() {
		names = append(names, def.Name)
	}
	return names
}

func TestValidateBackend(t *testing.T) {
	for _, b := range []string{"", "command", "device", "Device"} {
		assert.NoError(t, validateBackend(config.PlaybackConfig{Backend: b}), b)
	}
	assert.Error(t, validateBackend(config.PlaybackConfig{Backend: "alsa"}))
}

func TestNewApp_UnknownEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.TTS.Engine = "festival"

	_, err := newApp(cfg)
	assert.ErrorContains(t, err, "festival")
}

func TestNewApp_Tools(t *testing.T) {
	cfg := testConfig(t)

	a, err := newApp(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"speak", "list_voices"}, toolNames(a))
	a.close()

	cfg.History.Enabled = true
	a, err = newApp(cfg)
	require.NoError(t, err)
	defer a.close()
	assert.Equal(t, []string{"speak", "list_voices", "speech_history"}, toolNames(a))
}

func TestNewApp_MissingModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Enabled = true

	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.close()

	out, err := a.registry().Execute(t.Context(), "speak", []byte(`{"text":"hello"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "TTS Failed: TTS engine is not available")

	entries, err := a.store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
}

func TestVoicesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"voices", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Available TTS Voices:")
	assert.Contains(t, out.String(), "Default voice: expr-voice-2-f")
}

func TestSayCommand_ExplicitZeroSpeedRejected(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs([]string{"say", "--speed", "0", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "hello"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, "Speed must be between 0.5 and 2.0 (provided: 0)", err.Error())
}
