package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/exe-builder/internal/capture"
	"github.com/oshokin/exe-builder/internal/config"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/emit"
	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/render"
	"github.com/oshokin/exe-builder/internal/service/common"
)

// Options contains inputs for the generator entry points.
type Options struct {
	// MainFile is the path of the main Python script.
	MainFile string
	// AdditionalFiles are paths of extra files to bundle.
	AdditionalFiles []string

	// AppName is the application name; the executable is AppName.exe.
	AppName string
	// Version is the application version.
	Version string
	// Description is the application description.
	Description string
	// Author is the application author.
	Author string
	// Packages is a comma-separated list of packages to include.
	Packages string
	// Excludes is a comma-separated list of packages to exclude.
	Excludes string
	// Icon is the icon path written into setup.py.
	Icon string
	// Base is "console" or "gui".
	Base string

	// OutputDir is the folder the bundle is written to.
	OutputDir string
	// ServerAddress renders on a remote exe-builder-server when set.
	ServerAddress string
	// Spacing pauses between setup.py and build.bat.
	Spacing time.Duration
	// Timeout bounds each remote call.
	Timeout time.Duration
	// MaxFileBytes bounds each input file; zero keeps the default.
	MaxFileBytes int64
}

// Result describes a finished generation.
type Result struct {
	// OutputDir is where the bundle was written.
	OutputDir string
	// Files lists the written file names in emission order.
	Files []string
	// Rejected lists the additional files that were skipped.
	Rejected []capture.Rejection
}

// errNoOutputDir is returned when Generate has nowhere to write.
var errNoOutputDir = errors.New("output folder must be provided")

// generator holds one CLI run.
type generator struct {
	// opts are the caller's inputs.
	opts *Options
	// renderer renders locally or remotely.
	renderer emit.Renderer
	// closeRenderer releases the remote connection, if any.
	closeRenderer func() error
}

// Generate writes the main file, the additional files, setup.py and build.bat into OutputDir.
func Generate(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "exe-builder")

	if opts.OutputDir == "" {
		return nil, errNoOutputDir
	}

	gen, err := newGenerator(ctx, opts)
	if err != nil {
		return nil, err
	}

	defer gen.close(ctx)

	session, rejected, err := gen.session(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := emit.NewDirEmitter(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	recorder := &recordingEmitter{next: dir}

	err = emit.EmitAll(ctx, recorder, gen.renderer, session, emit.WithSpacing(opts.Spacing))
	if err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}

	logger.InfoKV(ctx, "Bundle written", "output_dir", dir.Dir(), "files", len(recorder.names))

	return &Result{
		OutputDir: dir.Dir(),
		Files:     recorder.names,
		Rejected:  rejected,
	}, nil
}

// Render writes setup.py for the given inputs to w.
func Render(ctx context.Context, opts *Options, w io.Writer) error {
	ctx = logger.WithName(ctx, "exe-builder")

	gen, err := newGenerator(ctx, opts)
	if err != nil {
		return err
	}

	defer gen.close(ctx)

	session, _, err := gen.session(ctx)
	if err != nil {
		return err
	}

	script, err := gen.renderer.RenderScript(ctx, session.MainFileName(), session.Config)
	if err != nil {
		return fmt.Errorf("render %s: %w", render.ScriptFilename, err)
	}

	_, err = io.WriteString(w, script)

	return err
}

// Companion writes build.bat to w.
func Companion(ctx context.Context, opts *Options, w io.Writer) error {
	ctx = logger.WithName(ctx, "exe-builder")

	gen, err := newGenerator(ctx, opts)
	if err != nil {
		return err
	}

	defer gen.close(ctx)

	script, err := gen.renderer.RenderCompanionScript(ctx)
	if err != nil {
		return fmt.Errorf("render %s: %w", render.CompanionFilename, err)
	}

	_, err = io.WriteString(w, script)

	return err
}

// newGenerator picks the renderer.
func newGenerator(ctx context.Context, opts *Options) (*generator, error) {
	gen := &generator{
		opts:          opts,
		closeRenderer: func() error { return nil },
	}

	if opts.ServerAddress == "" {
		engine, err := render.NewEngine()
		if err != nil {
			return nil, fmt.Errorf("initialise render engine: %w", err)
		}

		gen.renderer = emit.Local{Engine: engine}

		return gen, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	client, err := common.Dial(ctx, opts.ServerAddress, common.WithCallTimeout(timeout))
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Rendering on a remote server", "server_address", opts.ServerAddress)

	gen.renderer = client
	gen.closeRenderer = client.Close

	return gen, nil
}

func (g *generator) close(ctx context.Context) {
	if err := g.closeRenderer(); err != nil {
		logger.WarnKV(ctx, "Failed to close the render client", "error", err)
	}
}

// session captures the files and applies the settings.
func (g *generator) session(ctx context.Context) (*build.Session, []capture.Rejection, error) {
	var captureOpts []capture.Option
	if g.opts.MaxFileBytes > 0 {
		captureOpts = append(captureOpts, capture.WithMaxBytes(g.opts.MaxFileBytes))
	}

	capturer := capture.New(captureOpts...)

	mainFile, err := capturer.CaptureMain(ctx, capture.PathSources([]string{g.opts.MainFile}))
	if err != nil {
		return nil, nil, fmt.Errorf("capture main file: %w", err)
	}

	session := build.WithMainFile(build.NewSession(), mainFile)

	result := capturer.CaptureAdditional(ctx, capture.PathSources(g.opts.AdditionalFiles))
	session = build.WithAdditionalFiles(session, result.Files...)

	cfg := session.Config.Clone()

	if g.opts.AppName != "" {
		cfg.SetAppName(g.opts.AppName)
	}

	if g.opts.Version != "" {
		cfg.SetVersion(g.opts.Version)
	}

	cfg.SetDescription(g.opts.Description)
	cfg.SetAuthor(g.opts.Author)
	cfg.SetPackages(g.opts.Packages)
	cfg.SetExcludePackages(g.opts.Excludes)
	cfg.SetIcon(g.opts.Icon)

	if err = cfg.SetBaseOption(g.opts.Base); err != nil {
		return nil, nil, err
	}

	return build.WithConfig(session, cfg), result.Rejected, nil
}

// recordingEmitter remembers what was emitted.
type recordingEmitter struct {
	next  emit.Emitter
	names []string
}

func (r *recordingEmitter) Emit(ctx context.Context, filename, content string) error {
	if err := r.next.Emit(ctx, filename, content); err != nil {
		return err
	}

	r.names = append(r.names, filename)

	return nil
}
