package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oshokin/exe-builder/internal/logger"
)

// unaryLogger logs one line per gRPC call.
func unaryLogger(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	ctx = logger.WithKV(logger.WithName(ctx, "grpc"), "method", info.FullMethod)
	started := time.Now()

	resp, err := handler(ctx, req)

	logger.DebugKV(ctx, "Call served", "code", status.Code(err).String(), "duration", time.Since(started))

	return resp, err
}
