package integration

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/exe-builder/internal/config"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/service/common"
	"github.com/oshokin/exe-builder/internal/service/generator"
	"github.com/oshokin/exe-builder/internal/service/server"
)

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs exe-builder-server with a temporary settings file until the test ends.
func startServer(t *testing.T) (httpAddr, grpcAddr string) {
	t.Helper()

	httpAddr = reservePort(t)
	grpcAddr = reservePort(t)

	cfgPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	settings := config.Default()
	settings.HTTPAddress = httpAddr
	settings.GRPCAddress = grpcAddr
	settings.SessionTTL = time.Minute
	require.NoError(t, config.Save(cfgPath, settings))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpAddr + "/healthz") //nolint:noctx // Test helper.
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return httpAddr, grpcAddr
}

// TestServer_BrowserAndCLI drives the form over HTTP and the CLI over gRPC against one server.
func TestServer_BrowserAndCLI(t *testing.T) {
	t.Parallel()

	httpAddr, grpcAddr := startServer(t)
	base := "http://" + httpAddr

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	browser := &http.Client{Jar: jar}

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "app.py")
	require.NoError(t, err)

	_, err = io.WriteString(part, "print('hi')\n")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := browser.Post(base+"/main", writer.FormDataContentType(), &body) //nolint:noctx // Test helper.
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = browser.Get(base + "/download/setup.py") //nolint:noctx // Test helper.
	require.NoError(t, err)

	script, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(script), `"app.py",`)

	ctx := context.Background()

	client, err := common.Dial(ctx, grpcAddr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	remote, err := client.RenderScript(ctx, "app.py", build.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, string(script), remote)

	input := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(input, []byte("print('hi')\n"), 0o600))

	output := filepath.Join(t.TempDir(), "dist")

	result, err := generator.Generate(ctx, &generator.Options{
		MainFile:      input,
		OutputDir:     output,
		ServerAddress: grpcAddr,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"app.py", "setup.py", "build.bat"}, result.Files)

	written, err := os.ReadFile(filepath.Join(output, "setup.py"))
	require.NoError(t, err)
	require.Equal(t, remote, string(written))
}
