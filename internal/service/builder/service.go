package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oshokin/exe-builder/internal/capture"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/emit"
	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/render"
	repo "github.com/oshokin/exe-builder/internal/repository/session"
)

// ConfigUpdate edits a configuration in place; an error discards the edit.
type ConfigUpdate func(cfg *build.BuildConfig) error

// Service holds the dependencies of the builder operations.
type Service struct {
	// repo stores the sessions.
	repo repo.Repository
	// capturer reads uploads.
	capturer *capture.Capturer
	// engine renders setup.py and build.bat.
	engine *render.Engine
	// spacing is passed to emit.EmitAll.
	spacing time.Duration
	// mu serializes read-modify-write cycles on the repository.
	mu sync.Mutex
}

// Option configures the Service.
type Option func(*Service)

// WithSpacing sets the pause between setup.py and build.bat in bundles.
func WithSpacing(spacing time.Duration) Option {
	return func(s *Service) {
		s.spacing = spacing
	}
}

// NewService wires the builder dependencies.
func NewService(repository repo.Repository, capturer *capture.Capturer, engine *render.Engine, opts ...Option) *Service {
	s := &Service{
		repo:     repository,
		capturer: capturer,
		engine:   engine,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open returns the session for id, creating a new one when id is unknown or expired.
// The returned id is the one the caller must use from now on.
func (s *Service) Open(ctx context.Context, id string) (string, *build.Session) {
	if id != "" {
		session, err := s.repo.Load(ctx, id)
		if err == nil {
			return id, session
		}

		logger.DebugKV(ctx, "Session is gone, starting a new one", "session", id, "error", err)
	}

	return s.repo.Create(ctx)
}

// SetMainFile captures the main file and replaces the previous one.
func (s *Service) SetMainFile(ctx context.Context, id string, sources []capture.Source) (*build.Session, error) {
	file, err := s.capturer.CaptureMain(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("capture main file: %w", err)
	}

	return s.update(ctx, id, func(session *build.Session) (*build.Session, error) {
		return build.WithMainFile(session, file), nil
	})
}

// RemoveMainFile clears the main file.
func (s *Service) RemoveMainFile(ctx context.Context, id string) (*build.Session, error) {
	return s.update(ctx, id, func(session *build.Session) (*build.Session, error) {
		return build.WithoutMainFile(session), nil
	})
}

// AddAdditionalFiles captures a batch and appends the readable files.
// Rejected files are returned for display; they never fail the call.
func (s *Service) AddAdditionalFiles(
	ctx context.Context,
	id string,
	sources []capture.Source,
) (*build.Session, []capture.Rejection, error) {
	result := s.capturer.CaptureAdditional(ctx, sources)

	session, err := s.update(ctx, id, func(session *build.Session) (*build.Session, error) {
		return build.WithAdditionalFiles(session, result.Files...), nil
	})
	if err != nil {
		return nil, nil, err
	}

	return session, result.Rejected, nil
}

// RemoveAdditionalFile drops the file at index.
func (s *Service) RemoveAdditionalFile(ctx context.Context, id string, index int) (*build.Session, error) {
	return s.update(ctx, id, func(session *build.Session) (*build.Session, error) {
		return build.WithoutAdditionalFile(session, index)
	})
}

// UpdateConfig applies the update to a copy of the configuration.
func (s *Service) UpdateConfig(ctx context.Context, id string, update ConfigUpdate) (*build.Session, error) {
	return s.update(ctx, id, func(session *build.Session) (*build.Session, error) {
		cfg := session.Config.Clone()
		if err := update(&cfg); err != nil {
			return nil, err
		}

		return build.WithConfig(session, cfg), nil
	})
}

// Generate renders setup.py for the session. It refuses without a main file.
func (s *Service) Generate(ctx context.Context, id string) (string, error) {
	session, err := s.repo.Load(ctx, id)
	if err != nil {
		return "", err
	}

	if !session.HasMainFile() {
		return "", emit.ErrNoMainFile
	}

	script, err := s.engine.RenderScript(session.MainFileName(), session.Config)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Setup script generated", "main_file", session.MainFileName(), "app_name", session.Config.AppName)

	return script, nil
}

// MainFile returns the captured main file for download.
func (s *Service) MainFile(ctx context.Context, id string) (build.FileRecord, error) {
	session, err := s.repo.Load(ctx, id)
	if err != nil {
		return build.FileRecord{}, err
	}

	if !session.HasMainFile() {
		return build.FileRecord{}, emit.ErrNoMainFile
	}

	return *session.MainFile, nil
}

// AdditionalFile returns the additional file at index for download.
func (s *Service) AdditionalFile(ctx context.Context, id string, index int) (build.FileRecord, error) {
	session, err := s.repo.Load(ctx, id)
	if err != nil {
		return build.FileRecord{}, err
	}

	if index < 0 || index >= len(session.AdditionalFiles) {
		return build.FileRecord{}, fmt.Errorf("%w: %d not in [0, %d)",
			build.ErrIndexOutOfRange, index, len(session.AdditionalFiles))
	}

	return session.AdditionalFiles[index], nil
}

// Companion returns build.bat.
func (s *Service) Companion() string {
	return s.engine.RenderCompanionScript()
}

// DownloadAll streams the bundle of the session as a zip archive into w.
// Nothing is written when the session has no main file.
func (s *Service) DownloadAll(ctx context.Context, id string, w io.Writer) error {
	session, err := s.repo.Load(ctx, id)
	if err != nil {
		return err
	}

	if !session.HasMainFile() {
		return emit.ErrNoMainFile
	}

	archive := emit.NewZipEmitter(w)

	err = emit.EmitAll(ctx, archive, emit.Local{Engine: s.engine}, session, emit.WithSpacing(s.spacing))
	if closeErr := archive.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("build bundle: %w", err)
	}

	return nil
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}

// update runs one load → reduce → save cycle.
func (s *Service) update(
	ctx context.Context,
	id string,
	reduce func(*build.Session) (*build.Session, error),
) (*build.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := reduce(session)
	if err != nil {
		return nil, err
	}

	if err = s.repo.Save(ctx, id, next); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return next, nil
}
