package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
	"github.com/a3tai/mcp-pdf-annotator/internal/config"
)

// captureStdout runs fn and returns what it printed
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() { version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit }()

	version = "1.2.3"
	buildTime = "2025-03-01_10:30:00"
	gitCommit = "abc123"

	output := captureStdout(t, printVersion)
	for _, expected := range []string{
		"MCP PDF Annotator",
		"Version: 1.2.3",
		"Build Time: 2025-03-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestSetupLogging(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	setupLogging(&config.Config{Mode: "stdio", LogLevel: "debug"})
	assert.Equal(t, os.Stderr, log.Writer())

	setupLogging(&config.Config{Mode: "stdio", LogLevel: "info"})
	assert.NotEqual(t, os.Stderr, log.Writer())

	setupLogging(&config.Config{Mode: "server", LogLevel: "info"})
	assert.Equal(t, log.LstdFlags|log.Lshortfile, log.Flags())
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DocumentDirectory = t.TempDir()
	cfg.OutputDirectory = "/exports"
	cfg.StateFile = "/state/state.json"
	cfg.ApplyDelay = time.Millisecond
	return cfg
}

func TestOpenState(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testConfig(t)

	kv := openState(fs, cfg)
	require.NoError(t, kv.Set(annotation.UnderlineOptionsKey, `{"style":"dotted"}`))

	data, err := afero.ReadFile(fs, cfg.StateFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dotted")

	// a corrupt state file falls back to a working in-memory store
	require.NoError(t, afero.WriteFile(fs, cfg.StateFile, []byte("{broken"), 0o600))
	kv = openState(fs, cfg)
	require.NotNil(t, kv)
	assert.NoError(t, kv.Set("k", "v"))
}

func TestBuildServer(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testConfig(t)

	server, err := buildServer(context.Background(), cfg, fs)
	require.NoError(t, err)
	require.NotNil(t, server)
	assert.NoError(t, server.Close())

	cfg.CustomColor = "not-a-colour"
	_, err = buildServer(context.Background(), cfg, fs)
	assert.Error(t, err)
}
