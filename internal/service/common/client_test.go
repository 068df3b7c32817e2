//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	api "github.com/oshokin/exe-builder/internal/api/grpc/builder"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/emit"
	"github.com/oshokin/exe-builder/internal/render"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_Close tolerates clients without a connection.
func TestClient_Close(t *testing.T) {
	t.Parallel()

	require.NoError(t, new(Client).Close())

	var nilClient *Client
	require.NoError(t, nilClient.Close())
}

// TestClient_RemoteRenderer renders a bundle through the gRPC server.
func TestClient_RemoteRenderer(t *testing.T) {
	t.Parallel()

	engine, err := render.NewEngine()
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)

	server := grpc.NewServer()
	api.RegisterRenderServiceServer(server, api.NewServer(engine))

	go func() {
		_ = server.Serve(listener)
	}()

	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	client := NewClient(conn, WithCallTimeout(time.Second))

	session := build.WithMainFile(build.NewSession(), build.FileRecord{Name: "calc.py", Content: "print(1)\n"})

	cfg := session.Config.Clone()
	cfg.SetAppName(`Say "hi"`)
	session = build.WithConfig(session, cfg)

	remote := make(map[string]string)
	err = emit.EmitAll(context.Background(), emitterFunc(func(name, content string) {
		remote[name] = content
	}), client, session)
	require.NoError(t, err)

	local, err := engine.RenderScript(session.MainFileName(), session.Config)
	require.NoError(t, err)

	require.Equal(t, local, remote[render.ScriptFilename])
	require.Equal(t, engine.RenderCompanionScript(), remote[render.CompanionFilename])
	require.Equal(t, "print(1)\n", remote["calc.py"])
	require.Contains(t, remote[render.ScriptFilename], `target_name="Say \"hi\".exe"`)
}

// emitterFunc collects emissions in memory.
type emitterFunc func(name, content string)

func (f emitterFunc) Emit(_ context.Context, filename, content string) error {
	f(filename, content)

	return nil
}
