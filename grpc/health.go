package grpc

import (
	"errors"
	"net"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name the arena reports under in the health service.
const ServiceName = "arena"

// HealthServer exposes the standard gRPC health service so orchestrators can
// probe the arena the same way they probe the other game services.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

func Listen(addr string) (*HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	h := &HealthServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		lis:    lis,
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	reflection.Register(h.server)
	h.SetServing(true)

	return h, nil
}

func (h *HealthServer) Addr() net.Addr {
	return h.lis.Addr()
}

// Serve blocks until Stop is called.
func (h *HealthServer) Serve() error {
	log.Info("gRPC health service listening on ", h.lis.Addr())
	err := h.server.Serve(h.lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

func (h *HealthServer) Stop() {
	h.SetServing(false)
	h.server.GracefulStop()
}
