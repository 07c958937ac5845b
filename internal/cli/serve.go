package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	httpAdapter "github.com/esantoro/gaphor/pkg/adapters/http"
	"github.com/esantoro/gaphor/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve runs the HTTP API on ln until ctx is cancelled, then shuts the server down
// and closes every open document (writing final backups).
func Serve(ctx context.Context, stack *Stack, ln net.Listener) error {
	streams := httpAdapter.NewStreamManager(stack.Logger)
	docs := stack.Documents(streams.Hooks)

	handler := httpAdapter.NewHandler(docs,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithLogger(stack.Logger),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(stack.Registry, promhttp.HandlerOpts{})),
	)
	srv := &http.Server{Handler: handler}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		stack.Logger.Info("Starting gaphor server", "address", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	var err error
	select {
	case err = <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		stack.Logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		timeout := stack.Config.HTTP.ShutdownTimeout
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			stack.Logger.Warn("Graceful shutdown did not complete", "timeout", timeout, "err", serr)
			err = errors.Join(fmt.Errorf("could not stop server gracefully: %w", serr), srv.Close())
		}
	}

	if derr := docs.Shutdown(context.WithoutCancel(ctx)); derr != nil {
		err = errors.Join(err, fmt.Errorf("closing documents: %w", derr))
	}
	stack.Logger.Info("gaphor server stopped")
	return err
}

// ServeMCP runs the MCP server over the given transport ("stdio" or "sse").
func ServeMCP(ctx context.Context, stack *Stack, transport string, port int) error {
	docs := stack.Documents(nil)
	srv := mcp.NewServer(docs, stack.Logger)

	var err error
	switch transport {
	case "stdio":
		stack.Logger.Info("Starting gaphor MCP Server (Stdio)...")
		err = srv.ServeStdio()
	case "sse":
		err = srv.ServeSSE(ctx, port)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}

	return errors.Join(err, docs.Shutdown(context.WithoutCancel(ctx)))
}
