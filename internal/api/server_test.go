package api_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/domonhunt/internal/api"
	"github.com/mcoot/domonhunt/internal/testutil"
)

func TestServerRunStopsStreamsOnCancel(t *testing.T) {
	streaming := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		http.NewResponseController(w).Flush()
		close(streaming)
		<-r.Context().Done()
	})

	cfg := api.DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = 2 * time.Second
	server := api.NewServer(mux, cfg, testutil.NopLogger())
	require.NoError(t, server.Listen())
	base := "http://" + server.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	resp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	streamResp, err := http.Get(base + "/stream")
	require.NoError(t, err)
	defer func() { _ = streamResp.Body.Close() }()
	<-streaming

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerListenFailure(t *testing.T) {
	first := api.NewServer(http.NotFoundHandler(), api.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, testutil.NopLogger())
	require.NoError(t, first.Listen())

	second := api.NewServer(http.NotFoundHandler(), api.ServerConfig{Addr: first.Addr()}, testutil.NopLogger())
	assert.Error(t, second.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, first.Run(ctx))
}
