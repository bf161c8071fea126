package daemon

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/grpc"

	boostv1 "github.com/jamesainslie/boost/pkg/api/boost/v1"
)

// Config holds daemon configuration.
type Config struct {
	SocketPath string
	DataDir    string
	Version    string
}

// Server is the boostd gRPC server.
type Server struct {
	cfg      Config
	grpc     *grpc.Server
	listener net.Listener
	service  *Service

	stopOnce sync.Once
	done     chan struct{}
}

// NewServer creates a new daemon server serving e.
func NewServer(cfg Config, e *Engine) (*Server, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	// Remove stale socket if exists
	if err := os.RemoveAll(cfg.SocketPath); err != nil {
		return nil, err
	}

	// Ensure socket directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.SocketPath), 0755); err != nil {
		return nil, err
	}

	// Create Unix socket listener
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "unix", cfg.SocketPath)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		grpc:     grpc.NewServer(),
		listener: listener,
		service:  NewService(e, cfg.Version),
		done:     make(chan struct{}),
	}
	srv.service.OnShutdown(srv.requestStop)

	// Register gRPC service
	boostv1.RegisterBoostDaemonServer(srv.grpc, srv.service)

	return srv, nil
}

// Serve starts the gRPC server. Blocks until stopped.
func (s *Server) Serve() error {
	return s.grpc.Serve(s.listener)
}

// Done is closed when a client asked the daemon to shut down.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) requestStop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Close stops the server and cleans up.
func (s *Server) Close() error {
	s.requestStop()
	s.grpc.GracefulStop()
	return os.RemoveAll(s.cfg.SocketPath)
}
