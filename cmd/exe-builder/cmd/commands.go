package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/exe-builder/internal/config"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/service/generator"
)

// bindBuildFlags registers the settings shared by generate and render.
func bindBuildFlags(cmd *cobra.Command, opts *generator.Options) {
	flags := cmd.Flags()

	flags.StringVarP(&opts.AppName, "name", "n", build.DefaultAppName, "application name, the executable is NAME.exe")
	flags.StringVar(&opts.Version, "version-string", build.DefaultVersion, "application version")
	flags.StringVar(&opts.Description, "description", "", "application description")
	flags.StringVar(&opts.Author, "author", "", "application author")
	flags.StringVar(&opts.Packages, "packages", "", "comma-separated packages to include")
	flags.StringVar(&opts.Excludes, "excludes", "", "comma-separated packages to exclude")
	flags.StringVar(&opts.Icon, "icon", "", "icon path written into setup.py")
	flags.StringVar(&opts.Base, "base", "console", "executable base: console or gui")
	flags.StringVar(&opts.ServerAddress, "server", "", "render on this exe-builder-server gRPC address")
	flags.DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "timeout of each remote call")
}

func newGenerateCommand() *cobra.Command {
	opts := new(generator.Options)

	cmd := &cobra.Command{
		Use:   "generate MAIN.py [ADDITIONAL...]",
		Short: "Write the bundle into an output folder.",
		Long: `Copies MAIN.py and the additional files into the output folder and writes
setup.py and build.bat next to them. Additional files with unsupported
extensions are skipped with a warning. Data files (anything but .py) are
listed in include_files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.MainFile = args[0]
			opts.AdditionalFiles = args[1:]

			result, err := generator.Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}

			// Skipped files are already reported by the capture warnings.
			for _, name := range result.Files {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(result.OutputDir, name))
			}

			return nil
		},
	}

	bindBuildFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "dist", "output folder")
	cmd.Flags().DurationVar(&opts.Spacing, "spacing", 0, "pause between writing setup.py and build.bat")

	return cmd
}

func newRenderCommand() *cobra.Command {
	opts := new(generator.Options)

	cmd := &cobra.Command{
		Use:   "render MAIN.py [ADDITIONAL...]",
		Short: "Print setup.py to stdout.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.MainFile = args[0]
			opts.AdditionalFiles = args[1:]

			return generator.Render(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	bindBuildFlags(cmd, opts)

	return cmd
}

func newCompanionCommand() *cobra.Command {
	opts := new(generator.Options)

	cmd := &cobra.Command{
		Use:   "companion",
		Short: "Print build.bat to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generator.Companion(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.ServerAddress, "server", "", "render on this exe-builder-server gRPC address")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "timeout of each remote call")

	return cmd
}
