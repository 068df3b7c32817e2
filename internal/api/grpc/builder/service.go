package builder

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RenderServiceName is the fully qualified gRPC service name.
const RenderServiceName = "exebuilder.v1.RenderService"

// Full method names of RenderService.
const (
	RenderScriptFullMethodName          = "/" + RenderServiceName + "/RenderScript"
	RenderCompanionScriptFullMethodName = "/" + RenderServiceName + "/RenderCompanionScript"
)

// RenderServiceServer is the server API for RenderService.
type RenderServiceServer interface {
	RenderScript(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
	RenderCompanionScript(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// UnimplementedRenderServiceServer must be embedded to have forward compatible implementations.
type UnimplementedRenderServiceServer struct{}

// RenderScript is not implemented.
func (UnimplementedRenderServiceServer) RenderScript(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method RenderScript not implemented")
}

// RenderCompanionScript is not implemented.
func (UnimplementedRenderServiceServer) RenderCompanionScript(
	context.Context,
	*emptypb.Empty,
) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method RenderCompanionScript not implemented")
}

// RegisterRenderServiceServer registers srv on the gRPC server.
func RegisterRenderServiceServer(s grpc.ServiceRegistrar, srv RenderServiceServer) {
	s.RegisterService(&RenderServiceDesc, srv)
}

// RenderServiceDesc is the grpc.ServiceDesc for RenderService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var RenderServiceDesc = grpc.ServiceDesc{
	ServiceName: RenderServiceName,
	HandlerType: (*RenderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RenderScript",
			Handler:    renderScriptHandler,
		},
		{
			MethodName: "RenderCompanionScript",
			Handler:    renderCompanionScriptHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

func renderScriptHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(RenderServiceServer).RenderScript(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RenderScriptFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServiceServer).RenderScript(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}

func renderCompanionScriptHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(RenderServiceServer).RenderCompanionScript(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RenderCompanionScriptFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServiceServer).RenderCompanionScript(ctx, req.(*emptypb.Empty)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}

// RenderServiceClient is the client API for RenderService.
type RenderServiceClient interface {
	RenderScript(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	RenderCompanionScript(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type renderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRenderServiceClient returns a client bound to cc.
func NewRenderServiceClient(cc grpc.ClientConnInterface) RenderServiceClient {
	return &renderServiceClient{cc: cc}
}

func (c *renderServiceClient) RenderScript(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, RenderScriptFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *renderServiceClient) RenderCompanionScript(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, RenderCompanionScriptFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
