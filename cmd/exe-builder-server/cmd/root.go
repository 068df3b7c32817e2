package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/service/server"
	"github.com/oshokin/exe-builder/internal/version"
)

var (
	// options collects the flag values.
	options server.Options

	// rootCmd represents the base command for running the servers.
	rootCmd = &cobra.Command{
		Use:   "exe-builder-server",
		Short: "Serve the exe-builder form and render API.",
		Long: `Starts the HTTP server with the exe-builder form and the gRPC render API.

Settings are read from exe-builder-settings.yaml when present, or from the file
given with --config. The log level is reloaded whenever the file changes.
Sessions live in memory and expire after session_ttl of inactivity.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			return server.Run(ctx, &options)
		},
	}
)

// Execute runs the exe-builder-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&options.ConfigPath, "config", "c", "",
		"path to configuration file (default exe-builder-settings.yaml when present)")
	rootCmd.Flags().StringVar(&options.HTTPAddress, "http-addr", "", "override the HTTP listen address")
	rootCmd.Flags().StringVar(&options.GRPCAddress, "grpc-addr", "", "override the gRPC listen address")
}
