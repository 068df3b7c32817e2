package generator

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	api "github.com/oshokin/exe-builder/internal/api/grpc/builder"
	"github.com/oshokin/exe-builder/internal/capture"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/render"
)

// writeInputs creates the input files and returns their paths keyed by name.
func writeInputs(t *testing.T, files map[string]string) map[string]string {
	t.Helper()

	dir := t.TempDir()
	paths := make(map[string]string, len(files))

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		paths[name] = path
	}

	return paths
}

// TestGenerate writes the whole bundle into the output folder.
func TestGenerate(t *testing.T) {
	t.Parallel()

	inputs := writeInputs(t, map[string]string{
		"calc.py":   "print(1)\n",
		"data.json": `{"a": 1}`,
		"notes.md":  "skip me",
	})

	output := filepath.Join(t.TempDir(), "dist")

	result, err := Generate(context.Background(), &Options{
		MainFile:        inputs["calc.py"],
		AdditionalFiles: []string{inputs["data.json"], inputs["notes.md"]},
		AppName:         "Calc",
		Packages:        "os, json",
		Base:            "gui",
		OutputDir:       output,
	})
	require.NoError(t, err)
	require.Equal(t, output, result.OutputDir)
	require.Equal(t, []string{"calc.py", "data.json", "setup.py", "build.bat"}, result.Files)
	require.Len(t, result.Rejected, 1)
	require.ErrorIs(t, result.Rejected[0], capture.ErrNotAccepted)

	script, err := os.ReadFile(filepath.Join(output, render.ScriptFilename))
	require.NoError(t, err)
	require.Contains(t, string(script), `target_name="Calc.exe"`)
	require.Contains(t, string(script), `version="1.0.0"`)
	require.Contains(t, string(script), `"include_files": ["data.json"]`)
	require.Contains(t, string(script), `base = "Win32GUI"`)

	main, err := os.ReadFile(filepath.Join(output, "calc.py"))
	require.NoError(t, err)
	require.Equal(t, "print(1)\n", string(main))

	_, err = os.Stat(filepath.Join(output, render.CompanionFilename))
	require.NoError(t, err)
}

// TestGenerate_Errors refuses bad inputs before writing anything.
func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	inputs := writeInputs(t, map[string]string{"app.py": "pass\n", "readme.md": "no"})

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{
			name: "no output folder",
			opts: Options{MainFile: inputs["app.py"]},
			want: errNoOutputDir,
		},
		{
			name: "main file is not python",
			opts: Options{MainFile: inputs["readme.md"], OutputDir: t.TempDir()},
			want: capture.ErrNotAccepted,
		},
		{
			name: "unknown base",
			opts: Options{MainFile: inputs["app.py"], Base: "tray", OutputDir: t.TempDir()},
			want: build.ErrUnknownBaseOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Generate(context.Background(), &tt.opts)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, result)
		})
	}
}

// TestRender_LocalAndRemote renders the same script in-process and through a server.
func TestRender_LocalAndRemote(t *testing.T) {
	t.Parallel()

	engine, err := render.NewEngine()
	require.NoError(t, err)

	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	api.RegisterRenderServiceServer(server, api.NewServer(engine))

	go func() {
		_ = server.Serve(listener)
	}()

	t.Cleanup(server.Stop)

	inputs := writeInputs(t, map[string]string{"tool.py": "pass\n", "logo.ico": "ico"})

	opts := Options{
		MainFile:        inputs["tool.py"],
		AdditionalFiles: []string{inputs["logo.ico"]},
		AppName:         `C:\Tools "X"`,
		Icon:            "logo.ico",
	}

	var local bytes.Buffer
	require.NoError(t, Render(context.Background(), &opts, &local))
	require.Contains(t, local.String(), `icon="logo.ico",`)
	require.Contains(t, local.String(), `name="C:\\Tools \"X\"",`)

	remoteOpts := opts
	remoteOpts.ServerAddress = listener.Addr().String()

	var remote bytes.Buffer
	require.NoError(t, Render(context.Background(), &remoteOpts, &remote))
	require.Equal(t, local.String(), remote.String())

	var companion bytes.Buffer
	require.NoError(t, Companion(context.Background(), &remoteOpts, &companion))
	require.Equal(t, engine.RenderCompanionScript(), companion.String())
}
