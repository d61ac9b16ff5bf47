package server

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/go-sod/glove/internal/httputil"
)

// HealthService is the gRPC health service name of the collector loop.
const HealthService = "glove.Collector"

// Probe reports whether the service is ready, along with a detail value
// rendered as the HTTP health body.
type Probe func() (serving bool, detail interface{})

// HandleHealth answers 200 while the probe is serving and 503 otherwise.
func HandleHealth(ctx context.Context, probe Probe) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serving, detail := probe()
		code := http.StatusOK
		if !serving {
			code = http.StatusServiceUnavailable
		}
		httputil.RespJSON(ctx, w, code, detail)
	})
}

// NewGRPCHealth returns a gRPC server exposing the standard health service.
func NewGRPCHealth() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return srv, hs
}

// SyncHealth mirrors the probe into hs until ctx is done, then marks every
// service as not serving.
func SyncHealth(ctx context.Context, hs *health.Server, probe Probe, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if serving, _ := probe(); serving {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(HealthService, status)
		hs.SetServingStatus("", status)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			hs.Shutdown()
			return
		}
	}
}
