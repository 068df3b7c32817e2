package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/exe-builder/internal/domain/build"
)

var errUnreadable = errors.New("device not ready")

// memorySource is an in-memory Source for tests.
type memorySource struct {
	name    string
	content []byte
	openErr error
}

func (m memorySource) Name() string { return m.name }

func (m memorySource) Open() (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}

	return io.NopCloser(bytes.NewReader(m.content)), nil
}

// TestFilters checks the accepted extensions of both slots.
func TestFilters(t *testing.T) {
	t.Parallel()

	require.True(t, MainFilter.Accepts("main.py"))
	require.True(t, MainFilter.Accepts("MAIN.PY"))
	require.False(t, MainFilter.Accepts("main.pyw"))
	require.False(t, MainFilter.Accepts("data.json"))

	for _, name := range []string{"a.py", "b.pyd", "c.dll", "d.txt", "e.json", "f.xml", "g.csv", "h.png", "i.jpg", "j.jpeg", "k.ico"} {
		require.True(t, AdditionalFilter.Accepts(name), name)
	}

	require.False(t, AdditionalFilter.Accepts("setup.exe"))
	require.Len(t, AdditionalFilter.Extensions(), 11)
}

// TestCaptureMain reads the first source and strips client directories.
func TestCaptureMain(t *testing.T) {
	t.Parallel()

	c := New()

	file, err := c.CaptureMain(context.Background(), []Source{
		memorySource{name: `C:\work\calc.py`, content: []byte("print('hi')\n")},
		memorySource{name: "ignored.py", content: []byte("pass\n")},
	})
	require.NoError(t, err)
	require.Equal(t, "calc.py", file.Name)
	require.Equal(t, "print('hi')\n", file.Content)
	require.Contains(t, file.ContentType, "text/plain")

	_, err = c.CaptureMain(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoFiles)

	_, err = c.CaptureMain(context.Background(), []Source{memorySource{name: "notes.txt"}})
	require.ErrorIs(t, err, ErrNotAccepted)

	var rejection Rejection
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, "notes.txt", rejection.Name)

	_, err = c.CaptureMain(context.Background(), []Source{memorySource{name: "caf\xe9.py", content: []byte("pass\n")}})
	require.ErrorIs(t, err, build.ErrUnsafeName)
}

// TestCaptureMain_RefusesBinaryContent sniffs the main file and keeps only text.
func TestCaptureMain_RefusesBinaryContent(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

	_, err := New().CaptureMain(context.Background(), []Source{memorySource{name: "app.py", content: png}})
	require.ErrorIs(t, err, ErrNotText)
	require.ErrorContains(t, err, "image/png")

	file, err := New().CaptureMain(context.Background(), []Source{
		memorySource{name: "script.py", content: []byte("#!/usr/bin/env python3\nprint(1)\n")},
	})
	require.NoError(t, err)
	require.Contains(t, file.ContentType, "text/")

	// Binary content stays allowed in the additional slot.
	result := New().CaptureAdditional(context.Background(), []Source{memorySource{name: "logo.png", content: png}})
	require.Empty(t, result.Rejected)
	require.Equal(t, "image/png", result.Files[0].ContentType)
}

// TestCaptureAdditional_KeepsOrderAndReportsFailures mixes good, filtered and unreadable files.
func TestCaptureAdditional_KeepsOrderAndReportsFailures(t *testing.T) {
	t.Parallel()

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

	sources := []Source{
		memorySource{name: "helper.py", content: []byte("x = 1\n")},
		memorySource{name: "virus.exe", content: []byte("MZ")},
		memorySource{name: "logo.png", content: png},
		memorySource{name: "broken.json", openErr: errUnreadable},
		memorySource{name: "data.csv", content: []byte("a,b\n1,2\n")},
	}

	result := New().CaptureAdditional(context.Background(), sources)

	require.Len(t, result.Files, 3)
	require.Equal(t, "helper.py", result.Files[0].Name)
	require.Equal(t, "logo.png", result.Files[1].Name)
	require.Equal(t, "data.csv", result.Files[2].Name)

	// Binary content survives byte for byte.
	require.Equal(t, string(png), result.Files[1].Content)
	require.Equal(t, "image/png", result.Files[1].ContentType)

	require.Len(t, result.Rejected, 2)
	require.Equal(t, "virus.exe", result.Rejected[0].Name)
	require.ErrorIs(t, result.Rejected[0], ErrNotAccepted)
	require.Equal(t, "broken.json", result.Rejected[1].Name)
	require.ErrorIs(t, result.Rejected[1], errUnreadable)
}

// TestCapture_SizeLimit rejects files above the limit.
func TestCapture_SizeLimit(t *testing.T) {
	t.Parallel()

	c := New(WithMaxBytes(4))

	result := c.CaptureAdditional(context.Background(), []Source{
		memorySource{name: "small.txt", content: []byte("1234")},
		memorySource{name: "large.txt", content: []byte("12345")},
	})

	require.Len(t, result.Files, 1)
	require.Len(t, result.Rejected, 1)
	require.ErrorIs(t, result.Rejected[0], ErrTooLarge)
}

// TestPathSource reads files from disk.
func TestPathSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(path, []byte("import os\n"), 0o600))

	file, err := New().CaptureMain(context.Background(), PathSources([]string{path}))
	require.NoError(t, err)
	require.Equal(t, "main.py", file.Name)
	require.Equal(t, "import os\n", file.Content)

	_, err = New().CaptureMain(context.Background(), PathSources([]string{filepath.Join(t.TempDir(), "gone.py")}))
	require.ErrorIs(t, err, os.ErrNotExist)
}
