package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Timeouts bound each phase of a connection. Writes get a long budget
// because handlers stream multipart uploads through to object storage.
type Timeouts struct {
	ReadHeader time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// ShutdownTimeout bounds graceful shutdown and dependency cleanup.
var ShutdownTimeout = 15 * time.Second

// DefaultTimeouts are applied by New.
var DefaultTimeouts = Timeouts{
	ReadHeader: 5 * time.Second,
	Write:      5 * time.Minute,
	Idle:       2 * time.Minute,
}

// Server wraps the http.Server with sensible defaults.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler) *Server {
	return NewWithTimeouts(port, handler, DefaultTimeouts)
}

// NewWithTimeouts constructs a server with explicit connection timeouts.
func NewWithTimeouts(port int, handler http.Handler, timeouts Timeouts) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
			WriteTimeout:      timeouts.Write,
			IdleTimeout:       timeouts.Idle,
		},
	}
}

// Addr reports the listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully terminates the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
