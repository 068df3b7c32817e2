//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/exe-builder/internal/api/grpc/builder"
	"github.com/oshokin/exe-builder/internal/config"
	"github.com/oshokin/exe-builder/internal/domain/build"
)

// Client wraps the gRPC RenderService client with convenience helpers.
// It satisfies emit.Renderer, so a remote server can replace the local engine.
type Client struct {
	// conn is the underlying gRPC connection to the render server.
	conn *grpc.ClientConn
	// api is the RenderService client interface.
	api api.RenderServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the render server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial render server: %w", err)
	}

	client := NewClient(conn, opts...)
	client.conn = conn

	return client, nil
}

// NewClient wraps an existing connection. Close does not close it.
func NewClient(cc grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		api:         api.NewRenderServiceClient(cc),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// RenderScript asks the server to render setup.py.
func (c *Client) RenderScript(ctx context.Context, mainFileName string, cfg build.BuildConfig) (string, error) {
	request, err := api.ToStruct(mainFileName, cfg)
	if err != nil {
		return "", fmt.Errorf("encode render request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.RenderScript(callCtx, request)
	if err != nil {
		return "", fmt.Errorf("render script: %w", err)
	}

	return response.GetValue(), nil
}

// RenderCompanionScript asks the server for build.bat.
func (c *Client) RenderCompanionScript(ctx context.Context) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.RenderCompanionScript(callCtx, new(emptypb.Empty))
	if err != nil {
		return "", fmt.Errorf("render companion script: %w", err)
	}

	return response.GetValue(), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
