// Package grpc serves the standard gRPC health service for the menu cache.
package grpc

import (
	"github.com/wyfcoding/littlelemon/internal/menu/application"
	"github.com/wyfcoding/littlelemon/pkg/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// SyncServiceName is the health service tracking the outcome of the latest sync pass.
const SyncServiceName = "menu.sync"

// HealthReporter maps store and sync state onto health statuses. The
// overall status ("") is SERVING once the store is open.
type HealthReporter struct {
	health *health.Server
}

// NewServer creates a gRPC server with the health and reflection services registered.
func NewServer() (*grpc.Server, *HealthReporter) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(),
		),
	)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(SyncServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, &HealthReporter{health: hs}
}

// StoreReady marks the service as serving cached data.
func (h *HealthReporter) StoreReady() {
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// ObserveSync follows each finished pass. Register it with SyncService.OnComplete.
func (h *HealthReporter) ObserveSync(report application.SyncReport) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if report.Status.OK() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(SyncServiceName, status)
}

// Shutdown flips every service to NOT_SERVING so clients drain first.
func (h *HealthReporter) Shutdown() {
	h.health.Shutdown()
}
