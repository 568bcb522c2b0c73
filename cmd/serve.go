package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	server "github.com/tejusbharadwaj/renugrid/internal/grpc"
	"github.com/tejusbharadwaj/renugrid/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the poller headless with the HTTP and gRPC endpoints",
	Long: `Poll the feed in the background and expose the dashboard state.

HTTP (server.http_port):
  GET /api/state     latest reading, mode and connectivity
  GET /api/history   chart series for the recent window
  GET /api/archive   aggregated samples (needs the postgres sink)
  GET /api/stream    WebSocket push of every state change
  GET /metrics       Prometheus metrics
  GET /healthz       liveness

gRPC (server.grpc_port):
  grpc.health.v1.Health for service "renugrid.Feed"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context())
	},
}

// grpcStopTimeout bounds GracefulStop, which otherwise waits for open Watch
// streams.
const grpcStopTimeout = 5 * time.Second

func serveCommand(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg.Server
	opts := []web.Option{
		web.WithGatherer(a.registry),
		web.WithMetrics(a.metrics),
	}
	if a.repo != nil {
		opts = append(opts, web.WithArchive(a.repo))
	}
	httpSrv, err := web.NewServer(a.store, web.Config{
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
		CacheSize:      cfg.CacheSize,
		Location:       time.Local,
	}, a.logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to set up HTTP server: %w", err)
	}

	health := server.NewHealthChecker()
	grpcSrv, err := server.SetupServer(health, server.ServerConfig{
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	}, a.logger, a.metrics)
	if err != nil {
		return fmt.Errorf("failed to set up gRPC server: %w", err)
	}

	grpcAddr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.GRPCPort))
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddr, err)
	}

	// servers outlive the poller so the final state can still be read while
	// the scheduler winds down
	srvCtx, cancelSrv := context.WithCancel(context.Background())
	defer cancelSrv()

	errChan := make(chan error, 2)
	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.HTTPPort))
		if err := httpSrv.Listen(srvCtx, addr); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		a.logger.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()
	followDone := make(chan struct{})
	go func() {
		defer close(followDone)
		health.Follow(srvCtx, a.store)
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	case runErr = <-errChan:
		a.logger.WithError(runErr).Error("Service error")
	}

	// Stop closes the store, which ends Follow once it has drained the last
	// queued state
	a.scheduler.Stop()
	<-followDone
	health.Shutdown()
	cancelSrv()
	stopGRPC(grpcSrv, a.logger)
	<-httpDone

	a.logger.Info("Server stopped")
	return runErr
}

func stopGRPC(srv *grpc.Server, logger *logrus.Logger) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grpcStopTimeout):
		logger.Warn("gRPC graceful stop timed out, closing open streams")
		srv.Stop()
		<-done
	}
}
