package server

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	middleware "github.com/tejusbharadwaj/renugrid/internal/grpc/middlewares"
	"github.com/tejusbharadwaj/renugrid/internal/metrics"
)

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimit:      5.0, // 5 requests per second
		RateLimitBurst: 10,  // Burst of 10 requests
	}
}

// SetupServer initializes the gRPC server with all middleware and registers
// the health service.
func SetupServer(health *HealthChecker, config ServerConfig, logger *logrus.Logger, m *metrics.Metrics) (*grpc.Server, error) {
	if health == nil {
		return nil, errors.New("health checker is required")
	}
	if config.RateLimit <= 0 || config.RateLimitBurst <= 0 {
		return nil, errors.New("rate limit and burst must be positive")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	limiter := rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)

	server := grpc.NewServer(
		grpc.UnaryInterceptor(
			chainUnaryInterceptors(
				middleware.ContextMiddleware,                   // Add request ID first
				middleware.NewRateLimitingInterceptor(limiter), // Rate limit early
				middleware.NewLoggingInterceptor(logger),       // Log all requests (with request ID)
				middleware.NewMetricsInterceptor(m),            // Collect metrics
			),
		),
		grpc.ChainStreamInterceptor(
			middleware.StreamContextMiddleware,
			middleware.NewStreamRateLimitingInterceptor(limiter),
			middleware.NewStreamLoggingInterceptor(logger),
			middleware.NewStreamMetricsInterceptor(m),
		),
	)

	grpc_health_v1.RegisterHealthServer(server, health)

	return server, nil
}

// chainUnaryInterceptors creates a single interceptor from multiple interceptors
func chainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			chainedInterceptor := chain
			chain = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return interceptor(currentCtx, currentReq, info, chainedInterceptor)
			}
		}
		return chain(ctx, req)
	}
}
