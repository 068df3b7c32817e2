package builder

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/logger"
)

// Renderer abstracts the script rendering the transport depends on.
type Renderer interface {
	RenderScript(mainFileName string, cfg build.BuildConfig) (string, error)
	RenderCompanionScript() string
}

// Server implements the RenderService gRPC API.
type Server struct {
	UnimplementedRenderServiceServer

	// renderer produces the scripts.
	renderer Renderer
}

// NewServer wires the provided renderer into a gRPC handler.
func NewServer(renderer Renderer) *Server {
	return &Server{
		renderer: renderer,
	}
}

// RenderScript renders setup.py for the described build.
func (s *Server) RenderScript(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	mainFileName, cfg, err := FromStruct(req)
	if err != nil {
		if errors.Is(err, ErrInvalidField) || errors.Is(err, build.ErrUnknownBaseOption) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		return nil, status.Error(codes.Internal, "unable to decode request")
	}

	script, err := s.renderer.RenderScript(mainFileName, cfg)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to render setup script", "error", err)

		return nil, status.Error(codes.Internal, "unable to render setup script")
	}

	logger.InfoKV(ctx, "Setup script rendered", "main_file", mainFileName, "app_name", cfg.AppName)

	return wrapperspb.String(script), nil
}

// RenderCompanionScript returns build.bat.
func (s *Server) RenderCompanionScript(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.renderer.RenderCompanionScript()), nil
}
