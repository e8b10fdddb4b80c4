package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/rpcapi"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

// toStatus maps a service error to a gRPC status. Unknown errors become
// Internal with a generic message.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, reminderview.ErrInvalidFilter):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorUpstream):
		return status.Error(codes.Unavailable, "upstream service unavailable")
	}
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) Ping(ctx context.Context, _ *rpcapi.PingRequest) (*rpcapi.PingResponse, error) {
	return &rpcapi.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpcapi.LoginRequest) (*rpcapi.TokenResponse, error) {
	tokens, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "logged in", "username", req.Username)
	return &rpcapi.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpcapi.RefreshTokenRequest) (*rpcapi.TokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcapi.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) ListReminders(ctx context.Context, req *rpcapi.ListRemindersRequest) (*rpcapi.ListRemindersResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	raw := req.Filter
	if raw == "" {
		raw = string(reminderview.All)
	}
	filter, err := reminderview.ParseFilter(raw)
	if err != nil {
		return nil, toStatus(err)
	}

	now := s.now()
	view, err := s.reminders.View(ctx, userID, filter, now)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &rpcapi.ListRemindersResponse{
		Filter:    string(view.Filter),
		Reminders: make([]rpcapi.Reminder, 0, len(view.Items)),
		Counts:    make(map[string]int, len(view.Counts)),
	}
	for _, it := range view.Items {
		r := it.Reminder
		resp.Reminders = append(resp.Reminders, rpcapi.Reminder{
			ID:          r.ID,
			PlantID:     r.PlantID,
			PlantName:   it.Plant.Name,
			TaskType:    string(r.TaskType),
			TaskLabel:   r.TaskType.Label(),
			DueDate:     r.DueDate.String(),
			IsCompleted: r.IsCompleted,
			Overdue:     reminderview.IsOverdue(r, now),
		})
	}
	for f, n := range view.Counts {
		resp.Counts[string(f)] = n
	}
	return resp, nil
}

func (s *GRPCServer) SetReminderCompleted(ctx context.Context, req *rpcapi.SetReminderCompletedRequest) (*rpcapi.SetReminderCompletedResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.reminders.SetCompleted(ctx, userID, req.ID, req.Completed)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcapi.SetReminderCompletedResponse{ID: r.ID, IsCompleted: r.IsCompleted}, nil
}

func (s *GRPCServer) ListPlants(ctx context.Context, _ *rpcapi.ListPlantsRequest) (*rpcapi.ListPlantsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	plants, err := s.plants.List(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &rpcapi.ListPlantsResponse{Plants: make([]rpcapi.Plant, 0, len(plants))}
	for _, p := range plants {
		resp.Plants = append(resp.Plants, toPlant(p))
	}
	return resp, nil
}

func (s *GRPCServer) PresignPlantImage(ctx context.Context, req *rpcapi.PresignPlantImageRequest) (*rpcapi.PresignPlantImageResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	up, err := s.plants.PresignUpload(ctx, userID, req.ContentType)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcapi.PresignPlantImageResponse{Key: up.Key, UploadURL: up.UploadURL, ExpiresAt: up.ExpiresAt}, nil
}

func (s *GRPCServer) SetPlantImage(ctx context.Context, req *rpcapi.SetPlantImageRequest) (*rpcapi.SetPlantImageResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.plants.SetImage(ctx, userID, req.PlantID, req.Key)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpcapi.SetPlantImageResponse{Plant: toPlant(*p)}, nil
}

func toPlant(p models.Plant) rpcapi.Plant {
	return rpcapi.Plant{
		ID:                p.ID,
		Name:              p.Name,
		ImageURL:          p.ImageURL,
		WateringFrequency: p.WateringFrequency,
		LightLevel:        p.LightLevel,
		Temperature:       p.Temperature,
		Humidity:          p.Humidity,
	}
}
