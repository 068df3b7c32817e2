package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/version"
)

var (
	// logLevel is the minimum level written to stderr.
	logLevel string

	// rootCmd represents the base command of the CLI.
	rootCmd = &cobra.Command{
		Use:   "exe-builder",
		Short: "Generate cx_Freeze build files for a Python program.",
		Long: `Generates a cx_Freeze setup.py and a build.bat helper for a Python program
and copies the program files next to them, ready for "python setup.py build".`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the exe-builder CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := rootCmd.ExecuteContext(ctx)

	stop()
	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newGenerateCommand(), newRenderCommand(), newCompanionCommand())
}
