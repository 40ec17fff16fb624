package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_runServerMode_StopsOnCancel(t *testing.T) {
	ts := newTestServer(t)
	ts.config.Mode = "server"
	ts.config.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_runServerMode_InvalidAddress(t *testing.T) {
	ts := newTestServer(t)
	ts.config.Mode = "server"
	ts.config.Host = "256.256.256.256"
	ts.config.Port = 1

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := ts.runServerMode(ctx)
	assert.Error(t, err)
}
