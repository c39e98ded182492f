package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service names reported by the health server. The empty name is the
// overall server status.
const (
	ServiceOverall     = ""
	ServiceTranscribe  = "vani.Transcribe"
	ServiceChat        = "vani.Chat"
	ServiceTranslation = "vani.Translation"
)

// Server exposes the standard gRPC health protocol.
type Server struct {
	server *grpc.Server
	health *health.Server
	port   int
}

// NewServer creates a health server listening on port once started.
// Every service starts as NOT_SERVING.
func NewServer(port int) *Server {
	s := grpc.NewServer()
	hs := health.NewServer()

	grpc_health_v1.RegisterHealthServer(s, hs)
	reflection.Register(s)

	for _, name := range []string{ServiceOverall, ServiceTranscribe, ServiceChat, ServiceTranslation} {
		hs.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}

	return &Server{server: s, health: hs, port: port}
}

// SetServing updates the status of service.
func (s *Server) SetServing(service string, serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// ListenAndServe listens on the configured port and serves until Stop.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC health server listening", "addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains open streams.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
