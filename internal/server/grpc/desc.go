package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/bloombuddy/internal/rpcapi"
)

// bloomBuddyServer is the handler type of serviceDesc.
type bloomBuddyServer interface {
	Ping(context.Context, *rpcapi.PingRequest) (*rpcapi.PingResponse, error)
	Login(context.Context, *rpcapi.LoginRequest) (*rpcapi.TokenResponse, error)
	RefreshToken(context.Context, *rpcapi.RefreshTokenRequest) (*rpcapi.TokenResponse, error)
	ListReminders(context.Context, *rpcapi.ListRemindersRequest) (*rpcapi.ListRemindersResponse, error)
	SetReminderCompleted(context.Context, *rpcapi.SetReminderCompletedRequest) (*rpcapi.SetReminderCompletedResponse, error)
	ListPlants(context.Context, *rpcapi.ListPlantsRequest) (*rpcapi.ListPlantsResponse, error)
	PresignPlantImage(context.Context, *rpcapi.PresignPlantImageRequest) (*rpcapi.PresignPlantImageResponse, error)
	SetPlantImage(context.Context, *rpcapi.SetPlantImageRequest) (*rpcapi.SetPlantImageResponse, error)
}

// unary adapts a typed handler to grpc.MethodDesc.
func unary[Req, Resp any](fullMethod string, call func(bloomBuddyServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(bloomBuddyServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(bloomBuddyServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: rpcapi.ServiceName,
	HandlerType: (*bloomBuddyServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(rpcapi.MethodPing, bloomBuddyServer.Ping)},
		{MethodName: "Login", Handler: unary(rpcapi.MethodLogin, bloomBuddyServer.Login)},
		{MethodName: "RefreshToken", Handler: unary(rpcapi.MethodRefreshToken, bloomBuddyServer.RefreshToken)},
		{MethodName: "ListReminders", Handler: unary(rpcapi.MethodListReminders, bloomBuddyServer.ListReminders)},
		{MethodName: "SetReminderCompleted", Handler: unary(rpcapi.MethodSetReminderCompleted, bloomBuddyServer.SetReminderCompleted)},
		{MethodName: "ListPlants", Handler: unary(rpcapi.MethodListPlants, bloomBuddyServer.ListPlants)},
		{MethodName: "PresignPlantImage", Handler: unary(rpcapi.MethodPresignPlantImage, bloomBuddyServer.PresignPlantImage)},
		{MethodName: "SetPlantImage", Handler: unary(rpcapi.MethodSetPlantImage, bloomBuddyServer.SetPlantImage)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bloombuddy.v1",
}
