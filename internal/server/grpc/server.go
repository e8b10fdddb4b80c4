// Package grpc serves the subset of the API used by the command-line client
// over gRPC. Messages are the plain structs of package rpcapi carried by its
// JSON codec, so the service is described by hand in serviceDesc.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
	"github.com/dmitrijs2005/bloombuddy/internal/server/storage"
)

type UserService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, token string) (*services.TokenPair, error)
	UserIDFromAccessToken(token string) (string, error)
}

type PlantService interface {
	List(ctx context.Context, userID string) ([]models.Plant, error)
	PresignUpload(ctx context.Context, userID, contentType string) (*storage.PresignedUpload, error)
	SetImage(ctx context.Context, userID string, id int64, key string) (*models.Plant, error)
}

type ReminderService interface {
	View(ctx context.Context, userID string, filter reminderview.Filter, now time.Time) (*services.ReminderView, error)
	SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*models.Reminder, error)
}

type GRPCServer struct {
	address   string
	users     UserService
	plants    PlantService
	reminders ReminderService
	logger    logging.Logger
	now       func() time.Time
}

func NewGRPCServer(addr string, l logging.Logger, us UserService, ps PlantService, rs ReminderService) *GRPCServer {
	return &GRPCServer{
		address:   addr,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		plants:    ps,
		reminders: rs,
		now:       time.Now,
	}
}

// newServer builds a grpc.Server with the service and interceptors
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is
// cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "stopping gRPC server")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "starting gRPC server", "address", lis.Addr().String())
	err := srv.Serve(lis)
	cancel()
	<-stopped
	return err
}
