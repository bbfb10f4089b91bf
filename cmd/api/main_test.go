package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/globely/globely-api/internal/infrastructure/config"
)

type fakeServer struct {
	startErr error
	stopped  chan struct{}
	shutdown bool
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeServer) Start(string) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown = true
	close(f.stopped)
	return nil
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newFakeServer(nil)
	cfg := &config.Config{ShutdownTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ":0", cfg, zerolog.Nop()) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	if !srv.shutdown {
		t.Fatal("expected Shutdown to be called")
	}
}

func TestServe_ReturnsStartError(t *testing.T) {
	boom := errors.New("address already in use")
	srv := newFakeServer(boom)
	cfg := &config.Config{ShutdownTimeout: time.Second}

	if err := serve(context.Background(), srv, ":0", cfg, zerolog.Nop()); !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
}
