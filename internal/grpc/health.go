package server

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
)

// FeedService is the health service name reporting feed connectivity.
const FeedService = "renugrid.Feed"

// HealthChecker implements the gRPC health checking protocol
type HealthChecker struct {
	grpc_health_v1.UnimplementedHealthServer
	mu       sync.RWMutex
	status   map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
	watchers map[string]map[chan grpc_health_v1.HealthCheckResponse_ServingStatus]struct{}
	shutdown bool
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		status:   make(map[string]grpc_health_v1.HealthCheckResponse_ServingStatus),
		watchers: make(map[string]map[chan grpc_health_v1.HealthCheckResponse_ServingStatus]struct{}),
	}
}

func (h *HealthChecker) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if status, ok := h.status[req.Service]; ok {
		return &grpc_health_v1.HealthCheckResponse{
			Status: status,
		}, nil
	}

	return nil, status.Error(codes.NotFound, "unknown service")
}

// Watch streams the status of a service, starting with the current one.
// Unknown services report SERVICE_UNKNOWN until they are registered.
func (h *HealthChecker) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	updates := make(chan grpc_health_v1.HealthCheckResponse_ServingStatus, 1)

	h.mu.Lock()
	current, ok := h.status[req.Service]
	if !ok {
		current = grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN
	}
	if h.watchers[req.Service] == nil {
		h.watchers[req.Service] = make(map[chan grpc_health_v1.HealthCheckResponse_ServingStatus]struct{})
	}
	h.watchers[req.Service][updates] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.watchers[req.Service], updates)
		h.mu.Unlock()
	}()

	last := current
	if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: current}); err != nil {
		return err
	}

	for {
		select {
		case <-stream.Context().Done():
			return status.Error(codes.Canceled, "stream has ended")
		case next := <-updates:
			if next == last {
				continue
			}
			last = next
			if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: next}); err != nil {
				return err
			}
		}
	}
}

// SetServingStatus sets the serving status of a service. It is ignored after
// Shutdown until Resume is called.
func (h *HealthChecker) SetServingStatus(service string, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return
	}
	h.setLocked(service, status)
}

// must be called with h.mu held
func (h *HealthChecker) setLocked(service string, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.status[service] = status
	for ch := range h.watchers[service] {
		select {
		case ch <- status:
		default:
			// replace the unread status with the newest one
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later status updates,
// so a state still queued for Follow cannot report SERVING again.
func (h *HealthChecker) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdown = true
	for service := range h.status {
		h.setLocked(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
}

// Resume accepts status updates again after Shutdown.
func (h *HealthChecker) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = false
}

// Follow mirrors the store's connectivity into FeedService and the overall
// server status until ctx is done or the store is closed.
func (h *HealthChecker) Follow(ctx context.Context, store *dashboard.Store) {
	updates, cancel := store.Subscribe(1)
	defer cancel()

	h.apply(store.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			h.apply(st)
		}
	}
}

func (h *HealthChecker) apply(st dashboard.State) {
	s := ServingStatus(st.Connectivity)
	h.SetServingStatus(FeedService, s)
	h.SetServingStatus("", s)
}

// ServingStatus maps feed connectivity to a health status.
func ServingStatus(c dashboard.Connectivity) grpc_health_v1.HealthCheckResponse_ServingStatus {
	switch c.Status() {
	case dashboard.StatusConnected:
		return grpc_health_v1.HealthCheckResponse_SERVING
	case dashboard.StatusFailed:
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	default:
		return grpc_health_v1.HealthCheckResponse_UNKNOWN
	}
}
