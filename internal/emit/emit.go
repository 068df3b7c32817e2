package emit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/render"
)

// ErrNoMainFile is returned by EmitAll when the session has no main file.
var ErrNoMainFile = errors.New("no main file available")

// Emitter saves a single named file.
type Emitter interface {
	Emit(ctx context.Context, filename, content string) error
}

// Renderer produces the generated artifacts. It is satisfied by Local and
// by the remote render client.
type Renderer interface {
	RenderScript(ctx context.Context, mainFileName string, cfg build.BuildConfig) (string, error)
	RenderCompanionScript(ctx context.Context) (string, error)
}

// Local adapts the in-process template engine to Renderer.
type Local struct {
	Engine *render.Engine
}

// RenderScript renders setup.py with the embedded template.
func (l Local) RenderScript(_ context.Context, mainFileName string, cfg build.BuildConfig) (string, error) {
	return l.Engine.RenderScript(mainFileName, cfg)
}

// RenderCompanionScript returns the fixed build.bat.
func (l Local) RenderCompanionScript(context.Context) (string, error) {
	return l.Engine.RenderCompanionScript(), nil
}

type options struct {
	spacing time.Duration
}

// Option configures EmitAll.
type Option func(*options)

// WithSpacing pauses between setup.py and build.bat.
func WithSpacing(spacing time.Duration) Option {
	return func(o *options) {
		if spacing > 0 {
			o.spacing = spacing
		}
	}
}

// EmitAll emits, in order: the main file, the additional files in
// collection order, setup.py and build.bat. Without a main file nothing
// is emitted and ErrNoMainFile is returned. The first failure stops the
// sequence.
func EmitAll(ctx context.Context, emitter Emitter, renderer Renderer, session *build.Session, opts ...Option) error {
	if session == nil || !session.HasMainFile() {
		return ErrNoMainFile
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := emitOne(ctx, emitter, session.MainFile.Name, session.MainFile.Content); err != nil {
		return err
	}

	for _, file := range session.AdditionalFiles {
		if err := emitOne(ctx, emitter, file.Name, file.Content); err != nil {
			return err
		}
	}

	script, err := renderer.RenderScript(ctx, session.MainFile.Name, session.Config)
	if err != nil {
		return fmt.Errorf("render %s: %w", render.ScriptFilename, err)
	}

	if err = emitOne(ctx, emitter, render.ScriptFilename, script); err != nil {
		return err
	}

	companion, err := renderer.RenderCompanionScript(ctx)
	if err != nil {
		return fmt.Errorf("render %s: %w", render.CompanionFilename, err)
	}

	if err = wait(ctx, o.spacing); err != nil {
		return err
	}

	if err = emitOne(ctx, emitter, render.CompanionFilename, companion); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Bundle emitted", "files", len(session.AdditionalFiles)+3)

	return nil
}

func emitOne(ctx context.Context, emitter Emitter, filename, content string) error {
	if err := emitter.Emit(ctx, filename, content); err != nil {
		return fmt.Errorf("emit %s: %w", filename, err)
	}

	logger.DebugKV(ctx, "File emitted", "name", filename, "bytes", len(content))

	return nil
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
