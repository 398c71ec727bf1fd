package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNewAppliesDefaults(t *testing.T) {
	srv := New(8000, http.NotFoundHandler())

	if srv.Addr() != ":8000" {
		t.Fatalf("expected :8000 got %s", srv.Addr())
	}
	if srv.inner.ReadHeaderTimeout != DefaultTimeouts.ReadHeader || srv.inner.WriteTimeout != DefaultTimeouts.Write {
		t.Fatalf("unexpected timeouts %+v", srv.inner)
	}
}

func TestShutdownStopsStart(t *testing.T) {
	srv := NewWithTimeouts(0, http.NotFoundHandler(), Timeouts{ReadHeader: time.Second})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("expected ErrServerClosed got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
