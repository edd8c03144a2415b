// Package server runs the collector's HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
)

// shutdownTimeout bounds how long in-flight requests get on shutdown
const shutdownTimeout = 5 * time.Second

// AcceptPolicy decides how many connections the listener admits at once
type AcceptPolicy interface {
	Wrap(ln net.Listener) net.Listener
}

// AcceptPolicyFunc adapts a function to an AcceptPolicy
type AcceptPolicyFunc func(ln net.Listener) net.Listener

// Wrap calls f(ln)
func (f AcceptPolicyFunc) Wrap(ln net.Listener) net.Listener {
	return f(ln)
}

// Unbounded admits every connection; each one is served on its own goroutine
func Unbounded() AcceptPolicy {
	return AcceptPolicyFunc(func(ln net.Listener) net.Listener { return ln })
}

// MaxConnections admits at most n simultaneous connections. n <= 0 means Unbounded.
func MaxConnections(n int) AcceptPolicy {
	if n <= 0 {
		return Unbounded()
	}
	return AcceptPolicyFunc(func(ln net.Listener) net.Listener {
		return netutil.LimitListener(ln, n)
	})
}

// Server serves an http.Handler until its context is cancelled
type Server struct {
	httpServer *http.Server
	policy     AcceptPolicy
}

// New creates a server for handler. A nil policy means Unbounded.
func New(handler http.Handler, policy AcceptPolicy) *Server {
	if policy == nil {
		policy = Unbounded()
	}
	return &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		policy: policy,
	}
}

// ListenAndServe listens on addr and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(s.policy.Wrap(ln))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		<-errCh
		return nil
	}
}
