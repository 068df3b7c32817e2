package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	grpcapi "github.com/oshokin/exe-builder/internal/api/grpc/builder"
	httpapi "github.com/oshokin/exe-builder/internal/api/http/builder"
	"github.com/oshokin/exe-builder/internal/capture"
	"github.com/oshokin/exe-builder/internal/config"
	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/render"
	repository "github.com/oshokin/exe-builder/internal/repository/session"
	"github.com/oshokin/exe-builder/internal/service/builder"
	"github.com/oshokin/exe-builder/internal/version"
)

// Options controls the exe-builder-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	// Empty means the default file, which may be absent.
	ConfigPath string
	// HTTPAddress overrides http_addr from the settings.
	HTTPAddress string
	// GRPCAddress overrides grpc_addr from the settings.
	GRPCAddress string
}

// minJanitorInterval bounds how often idle sessions are swept.
const minJanitorInterval = time.Second

// Run starts the HTTP and gRPC servers and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "exe-builder-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.HTTPAddress != "" {
		settings.HTTPAddress = opts.HTTPAddress
	}

	if opts.GRPCAddress != "" {
		settings.GRPCAddress = opts.GRPCAddress
	}

	lc := net.ListenConfig{}

	httpListener, err := lc.Listen(ctx, "tcp", settings.HTTPAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.HTTPAddress, err)
	}

	grpcListener, err := lc.Listen(ctx, "tcp", settings.GRPCAddress)
	if err != nil {
		_ = httpListener.Close()

		return fmt.Errorf("listen on %s: %w", settings.GRPCAddress, err)
	}

	return serve(ctx, settings, opts.ConfigPath, httpListener, grpcListener)
}

// serve runs both servers on the given listeners until ctx is done.
func serve(
	ctx context.Context,
	settings *config.Config,
	configPath string,
	httpListener net.Listener,
	grpcListener net.Listener,
) error {
	applyLogLevel(ctx, settings)

	engine, err := render.NewEngine()
	if err != nil {
		return fmt.Errorf("initialise render engine: %w", err)
	}

	sessions := repository.NewMemoryRepository(settings.SessionTTL)
	svc := builder.NewService(
		sessions,
		capture.New(capture.WithMaxBytes(settings.MaxUploadBytes)),
		engine,
		builder.WithSpacing(settings.EmitSpacing),
	)

	handler, err := httpapi.NewHandler(svc,
		httpapi.WithMaxUploadBytes(settings.MaxUploadBytes),
		httpapi.WithSessionTTL(settings.SessionTTL),
	)
	if err != nil {
		return fmt.Errorf("initialise HTTP handler: %w", err)
	}

	httpServer := &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: settings.Timeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger))
	grpcapi.RegisterRenderServiceServer(grpcServer, grpcapi.NewServer(engine))

	logger.InfoKV(ctx, "Exe builder server listening",
		"http_address", httpListener.Addr().String(),
		"grpc_address", grpcListener.Addr().String(),
		"session_ttl", settings.SessionTTL,
		"version", version.Short(),
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
		defer cancel()

		grpcServer.GracefulStop()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}

		return nil
	})

	if settings.SessionTTL > 0 {
		group.Go(func() error {
			sessions.RunJanitor(groupCtx, janitorInterval(settings.SessionTTL))

			return nil
		})
	}

	group.Go(func() error {
		err := config.Watch(groupCtx, configPath, func(updated *config.Config) {
			applyLogLevel(ctx, updated)
			logger.InfoKV(ctx, "Settings reloaded", "log_level", updated.LogLevel)
		})
		if err != nil {
			logger.WarnKV(ctx, "Settings hot reload is disabled", "error", err)
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Servers stopped")

	return nil
}

// applyLogLevel switches the global logger to the configured level.
func applyLogLevel(ctx context.Context, settings *config.Config) {
	level, ok := logger.ParseLogLevel(settings.LogLevel)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping the current one", "log_level", settings.LogLevel)

		return
	}

	logger.SetLevel(level)
}

// janitorInterval sweeps a few times per TTL.
func janitorInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, minJanitorInterval) //nolint:mnd // Four sweeps per TTL.
}
