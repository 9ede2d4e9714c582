// Package grpc exposes the standard gRPC health service so that orchestrators
// can probe the server without going through HTTP.
package grpc

import (
	"context"
	"log/slog"
	"time"

	sdkgrpc "github.com/mama165/sdk-go/grpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "inbox.live.v1.Messages"

// NewHealth starts with every service SERVING.
func NewHealth() *health.Server {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return h
}

func NewServer(log *slog.Logger, h *health.Server) *gogrpc.Server {
	s := gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(sdkgrpc.UnaryLoggingInterceptor(log)))
	healthpb.RegisterHealthServer(s, h)
	return s
}

// StoreProbe flips the health status with the result of check.
type StoreProbe struct {
	log      *slog.Logger
	health   *health.Server
	check    func(ctx context.Context) error
	interval time.Duration
}

func NewStoreProbe(log *slog.Logger, h *health.Server, check func(ctx context.Context) error, interval time.Duration) *StoreProbe {
	return &StoreProbe{log: log, health: h, check: check, interval: interval}
}

// Run reports NOT_SERVING for good once ctx is done, so that in-flight probes
// see the server draining.
func (p *StoreProbe) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			p.health.Shutdown()
			return nil
		case <-ticker.C:
			err := p.check(ctx)
			switch {
			case err != nil && serving:
				p.log.Error("Store unavailable", "error", err)
				p.set(healthpb.HealthCheckResponse_NOT_SERVING)
			case err == nil && !serving:
				p.log.Info("Store available again")
				p.set(healthpb.HealthCheckResponse_SERVING)
			}
			serving = err == nil
		}
	}
}

func (p *StoreProbe) set(status healthpb.HealthCheckResponse_ServingStatus) {
	p.health.SetServingStatus("", status)
	p.health.SetServingStatus(ServiceName, status)
}
