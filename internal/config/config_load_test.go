package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"PDF_ANNOTATOR_MODE",
	"PDF_ANNOTATOR_HOST",
	"PDF_ANNOTATOR_PORT",
	"PDF_ANNOTATOR_DIR",
	"PDF_ANNOTATOR_OUT",
	"PDF_ANNOTATOR_STATE",
	"PDF_ANNOTATOR_LOG_LEVEL",
	"PDF_ANNOTATOR_MAX_FILE_SIZE",
	"PDF_ANNOTATOR_RENDER_SCALE",
	"PDF_ANNOTATOR_APPLY_DELAY",
	"PDF_ANNOTATOR_CUSTOM_COLOR",
}

// resetFlags gives every test a fresh flag set and viper instance
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}

func clearEnvVars() {
	for _, name := range envVars {
		os.Unsetenv(name)
	}
}

// withArgs runs LoadFromFlags with the given arguments and restores global state afterwards
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})

	os.Args = append([]string{"pdf-annotator"}, args...)
	resetFlags()
	return LoadFromFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	clearEnvVars()
	cfg, err := withArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 1.5, cfg.RenderScale)
	assert.Equal(t, 100*time.Millisecond, cfg.ApplyDelay)
	assert.Equal(t, "#4CAF50", cfg.CustomColor)
	assert.NotEmpty(t, cfg.DocumentDirectory)
	assert.True(t, filepath.IsAbs(cfg.StateFile))
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "server", cfg.Mode)
				assert.Equal(t, "0.0.0.0", cfg.Host)
				assert.Equal(t, 9090, cfg.Port)
			},
		},
		{
			name: "debug logging",
			args: []string{"--log-level=debug"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsDebug())
			},
		},
		{
			name: "custom max file size",
			args: []string{"--max-file-size=50000000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(50000000), cfg.MaxFileSize)
			},
		},
		{
			name: "viewer tuning",
			args: []string{"--render-scale=2", "--apply-delay=250ms", "--custom-color=teal"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2.0, cfg.RenderScale)
				assert.Equal(t, 250*time.Millisecond, cfg.ApplyDelay)
				assert.Equal(t, "teal", cfg.CustomColor)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			dir := t.TempDir()
			args := append([]string{"--dir=" + dir}, tt.args...)

			cfg, err := withArgs(t, args...)
			require.NoError(t, err)
			assert.Equal(t, dir, cfg.DocumentDirectory)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFlags_RelativePathsAreExpanded(t *testing.T) {
	clearEnvVars()
	cfg, err := withArgs(t, "--out=relative/exports", "--state=relative/state.json")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.OutputDirectory))
	assert.True(t, filepath.IsAbs(cfg.StateFile))
	assert.Equal(t, "exports", filepath.Base(cfg.OutputDirectory))
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	clearEnvVars()
	dir := t.TempDir()
	t.Setenv("PDF_ANNOTATOR_MODE", "server")
	t.Setenv("PDF_ANNOTATOR_HOST", "192.168.1.1")
	t.Setenv("PDF_ANNOTATOR_PORT", "3000")
	t.Setenv("PDF_ANNOTATOR_DIR", dir)
	t.Setenv("PDF_ANNOTATOR_LOG_LEVEL", "warn")
	t.Setenv("PDF_ANNOTATOR_MAX_FILE_SIZE", "200000000")
	t.Setenv("PDF_ANNOTATOR_APPLY_DELAY", "1s")

	cfg, err := withArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "192.168.1.1", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, dir, cfg.DocumentDirectory)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, int64(200000000), cfg.MaxFileSize)
	assert.Equal(t, time.Second, cfg.ApplyDelay)
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	clearEnvVars()
	t.Setenv("PDF_ANNOTATOR_MODE", "server")
	t.Setenv("PDF_ANNOTATOR_HOST", "192.168.1.1")
	t.Setenv("PDF_ANNOTATOR_PORT", "3000")

	cfg, err := withArgs(t, "--mode=stdio", "--host=localhost", "--port=8888")
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Mode)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8888, cfg.Port)
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--log-level=invalid"}, "invalid log level"},
		{"invalid render scale", []string{"--render-scale=-1"}, "render scale must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)
			_, err := withArgs(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnvVars()
	_, err := withArgs(t, "--version")
	require.Error(t, err)
	assert.Equal(t, "version requested", err.Error())
}
