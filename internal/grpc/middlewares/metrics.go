package middleware

import (
	"context"
	"path"
	"time"

	"google.golang.org/grpc"

	"github.com/tejusbharadwaj/renugrid/internal/metrics"
)

func NewMetricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		m.ObserveRequest("grpc", path.Base(info.FullMethod), time.Since(start))
		return resp, err
	}
}

func NewStreamMetricsInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()

		err := handler(srv, ss)

		m.ObserveRequest("grpc", path.Base(info.FullMethod), time.Since(start))
		return err
	}
}
