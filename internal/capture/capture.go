package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/logger"
)

const (
	// DefaultMaxBytes caps a single file when no limit is configured.
	DefaultMaxBytes int64 = 32 << 20

	// readConcurrency bounds parallel reads within one batch.
	readConcurrency = 8
)

var (
	// ErrNotAccepted is returned for files outside the slot's filter.
	ErrNotAccepted = errors.New("file type is not accepted")
	// ErrTooLarge is returned for files above the configured limit.
	ErrTooLarge = errors.New("file is too large")
	// ErrNoFiles is returned when the main slot receives nothing.
	ErrNoFiles = errors.New("no files provided")
	// ErrNotText is returned for a main file whose content is not text.
	ErrNotText = errors.New("file content is not text")
)

// Rejection describes a file that was skipped.
type Rejection struct {
	// Name is the name the file was offered under.
	Name string
	// Reason explains why it was skipped.
	Reason error
}

// Error formats the rejection for notices.
func (r Rejection) Error() string {
	return fmt.Sprintf("%s: %v", r.Name, r.Reason)
}

// Unwrap exposes the reason to errors.Is.
func (r Rejection) Unwrap() error {
	return r.Reason
}

// Result is the outcome of capturing a batch.
type Result struct {
	// Files were read successfully, in input order.
	Files []build.FileRecord
	// Rejected were skipped, in input order.
	Rejected []Rejection
}

// Capturer reads sources into file records.
type Capturer struct {
	maxBytes int64
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithMaxBytes sets the per-file size limit.
func WithMaxBytes(maxBytes int64) Option {
	return func(c *Capturer) {
		if maxBytes > 0 {
			c.maxBytes = maxBytes
		}
	}
}

// New creates a Capturer.
func New(opts ...Option) *Capturer {
	c := &Capturer{
		maxBytes: DefaultMaxBytes,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CaptureMain reads the first source for the main slot. Extra sources are ignored.
func (c *Capturer) CaptureMain(ctx context.Context, sources []Source) (build.FileRecord, error) {
	if len(sources) == 0 {
		return build.FileRecord{}, ErrNoFiles
	}

	if len(sources) > 1 {
		logger.WarnKV(ctx, "Main slot takes one file, ignoring the rest", "ignored", len(sources)-1)
	}

	file, err := c.read(ctx, sources[0], MainFilter, true)
	if err != nil {
		logger.WarnKV(ctx, "Main file skipped", "name", sources[0].Name(), "error", err)

		return build.FileRecord{}, Rejection{Name: sources[0].Name(), Reason: err}
	}

	logger.InfoKV(ctx, "Main file captured", "name", file.Name, "bytes", len(file.Content))

	return file, nil
}

// CaptureAdditional reads every source for the additional slot.
// Reads run concurrently; the result keeps the input order.
func (c *Capturer) CaptureAdditional(ctx context.Context, sources []Source) *Result {
	type outcome struct {
		file build.FileRecord
		err  error
	}

	outcomes := make([]outcome, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(readConcurrency)

	for i, source := range sources {
		group.Go(func() error {
			file, err := c.read(groupCtx, source, AdditionalFilter, false)
			outcomes[i] = outcome{file: file, err: err}

			// Failures are per file and must not cancel the siblings.
			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // Goroutines never return errors.

	result := &Result{
		Files: make([]build.FileRecord, 0, len(sources)),
	}

	for i, o := range outcomes {
		if o.err != nil {
			logger.WarnKV(ctx, "Additional file skipped", "name", sources[i].Name(), "error", o.err)
			result.Rejected = append(result.Rejected, Rejection{Name: sources[i].Name(), Reason: o.err})

			continue
		}

		result.Files = append(result.Files, o.file)
	}

	logger.InfoKV(ctx, "Additional files captured", "accepted", len(result.Files), "rejected", len(result.Rejected))

	return result
}

// read validates the name against the filter and loads the content.
// With textOnly, content sniffed as binary is refused.
func (c *Capturer) read(ctx context.Context, source Source, filter Filter, textOnly bool) (build.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return build.FileRecord{}, err
	}

	name := baseName(source.Name())
	if err := build.ValidateName(name); err != nil {
		return build.FileRecord{}, err
	}

	if !filter.Accepts(name) {
		return build.FileRecord{}, ErrNotAccepted
	}

	reader, err := source.Open()
	if err != nil {
		return build.FileRecord{}, fmt.Errorf("open: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	content, err := io.ReadAll(io.LimitReader(reader, c.maxBytes+1))
	if err != nil {
		return build.FileRecord{}, fmt.Errorf("read: %w", err)
	}

	if int64(len(content)) > c.maxBytes {
		return build.FileRecord{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, c.maxBytes)
	}

	detected := mimetype.Detect(content)
	if textOnly && !isText(detected) {
		return build.FileRecord{}, fmt.Errorf("%w: detected %s", ErrNotText, detected.String())
	}

	logger.DebugKV(ctx, "File read", "name", name, "bytes", len(content), "mime", detected.String())

	return build.NewFileRecord(name, string(content), detected.String())
}

// isText reports whether the detected type is text/plain or one of its descendants.
func isText(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}

	return false
}
