// Package client talks to the BloomBuddy gRPC server on behalf of the CLI.
package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/rpcapi"
)

// Tokens is the credential pair the client sends and rotates.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu     sync.Mutex
	tokens Tokens

	// onRefresh is called with the new pair after a transparent refresh.
	onRefresh func(Tokens)
	dialOpts  []grpc.DialOption
}

type Option func(*GRPCClient)

// WithTokens starts the client with a saved session.
func WithTokens(t Tokens) Option {
	return func(c *GRPCClient) { c.tokens = t }
}

// OnTokenRefresh registers fn to persist rotated tokens.
func OnTokenRefresh(fn func(Tokens)) Option {
	return func(c *GRPCClient) { c.onRefresh = fn }
}

// WithDialOptions is for tests that dial an in-memory listener.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) currentTokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// Tokens returns the pair currently held by the client.
func (c *GRPCClient) Tokens() Tokens { return c.currentTokens() }

func (c *GRPCClient) setTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

// accessTokenInterceptor attaches the access token and, when the server
// reports it expired, rotates the pair once and retries the call.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	tokens := c.currentTokens()
	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if err == nil || rpcapi.Public(method) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if tokens.RefreshToken == "" {
		return err
	}

	var resp rpcapi.TokenResponse
	refreshReq := &rpcapi.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}
	if rerr := invoker(ctx, rpcapi.MethodRefreshToken, refreshReq, &resp, cc, opts...); rerr != nil {
		return rerr
	}

	fresh := Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	c.setTokens(fresh)
	if c.onRefresh != nil {
		c.onRefresh(fresh)
	}

	return invoker(withAccessToken(ctx, fresh.AccessToken), method, req, reply, cc, opts...)
}

func NewBloomBuddyClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	for _, o := range opts {
		o(c)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(rpcapi.CallOption()),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, reply any) error {
	return c.mapError(c.conn.Invoke(ctx, method, req, reply))
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	var resp rpcapi.PingResponse
	if err := c.invoke(ctx, rpcapi.MethodPing, &rpcapi.PingRequest{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

// Login exchanges credentials for a token pair and keeps it for later calls.
func (c *GRPCClient) Login(ctx context.Context, username, password string) (Tokens, error) {
	var resp rpcapi.TokenResponse
	req := &rpcapi.LoginRequest{Username: username, Password: password}
	if err := c.invoke(ctx, rpcapi.MethodLogin, req, &resp); err != nil {
		return Tokens{}, err
	}
	t := Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	c.setTokens(t)
	return t, nil
}

func (c *GRPCClient) ListPlants(ctx context.Context) ([]rpcapi.Plant, error) {
	var resp rpcapi.ListPlantsResponse
	if err := c.invoke(ctx, rpcapi.MethodListPlants, &rpcapi.ListPlantsRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Plants, nil
}

func (c *GRPCClient) ListReminders(ctx context.Context, filter string) (*rpcapi.ListRemindersResponse, error) {
	var resp rpcapi.ListRemindersResponse
	if err := c.invoke(ctx, rpcapi.MethodListReminders, &rpcapi.ListRemindersRequest{Filter: filter}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) SetReminderCompleted(ctx context.Context, id int64, completed bool) error {
	var resp rpcapi.SetReminderCompletedResponse
	req := &rpcapi.SetReminderCompletedRequest{ID: id, Completed: completed}
	return c.invoke(ctx, rpcapi.MethodSetReminderCompleted, req, &resp)
}

func (c *GRPCClient) PresignPlantImage(ctx context.Context, contentType string) (*rpcapi.PresignPlantImageResponse, error) {
	var resp rpcapi.PresignPlantImageResponse
	if err := c.invoke(ctx, rpcapi.MethodPresignPlantImage, &rpcapi.PresignPlantImageRequest{ContentType: contentType}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) SetPlantImage(ctx context.Context, plantID int64, key string) (*rpcapi.Plant, error) {
	var resp rpcapi.SetPlantImageResponse
	if err := c.invoke(ctx, rpcapi.MethodSetPlantImage, &rpcapi.SetPlantImageRequest{PlantID: plantID, Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp.Plant, nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("invalid request: %s", st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
