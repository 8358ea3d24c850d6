// Package api hosts the tradelab HTTP and gRPC endpoints and owns their
// listener lifecycle.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"tradelab/internal/config"
	"tradelab/internal/httpapi"
	"tradelab/internal/store"
	"tradelab/internal/strategy"
)

// shutdownTimeout bounds the graceful drain after the context ends.
const shutdownTimeout = 10 * time.Second

// Server is the main API server that hosts HTTP and gRPC endpoints.
type Server struct {
	httpAddr string
	grpcAddr string
	http     *http.Server
	grpc     *grpc.Server
	log      *slog.Logger
}

// NewServer creates a new Server configured from the given Config. results
// may be nil to disable run history.
func NewServer(cfg *config.Config, bt *strategy.Backtester, results store.ResultStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	gs := grpc.NewServer()
	NewBacktestService(bt, log).RegisterGRPC(gs)

	return &Server{
		httpAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		grpcAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort),
		http: &http.Server{
			Handler:           httpapi.NewBacktestServer(bt, results, log).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpc: gs,
		log:  log.With("component", "api"),
	}
}

// ListenAndServe starts the HTTP and gRPC listeners and blocks until the
// context is cancelled or a fatal error occurs. On cancellation both servers
// are shut down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpAddr, err)
	}
	grpcLis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("listening on %s: %w", s.grpcAddr, err)
	}
	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve runs both servers on the given listeners until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("HTTP listening", "addr", httpLis.Addr().String())
		if err := s.http.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.log.Info("gRPC listening", "addr", grpcLis.Addr().String())
		if err := s.grpc.Serve(grpcLis); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown performs a graceful shutdown of the HTTP and gRPC servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	err := s.http.Shutdown(ctx)

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpc.Stop()
	}
	return err
}
