package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ingest service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIngestService)
	})

	t.Run("missing retrieval service", func(t *testing.T) {
		_, err := NewServer(&Ports{Ingest: &mockIngestService{}})
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("document service is optional", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Ingest:    &mockIngestService{},
			Retrieval: &mockRetrievalService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_RunHTTPStopsOnCancel(t *testing.T) {
	server := newTestServer(&Ports{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
