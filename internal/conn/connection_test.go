package conn

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/httpparse"
	"github.com/cserve/cserve/internal/wire"
)

// drainedEndpoint returns a wire.Endpoint whose peer discards everything
// written to it, so WriteAll/Flush never block on an unread net.Pipe.
func drainedEndpoint(t *testing.T) (wire.Endpoint, *[]byte) {
	t.Helper()
	client, server := net.Pipe()
	written := make([]byte, 0, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, err := client.Read(buf)
			written = append(written, buf[:n]...)
			if err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
		<-done
	})
	return wire.NewPlain(server), &written
}

func newTestConnection(t *testing.T) (*Connection, *[]byte) {
	ep, written := drainedEndpoint(t)
	req := httpparse.NewRequest()
	req.Method = httpparse.GET
	req.Path = "/"
	log := zap.NewNop()
	return New(ep, req, time.Minute, log), written
}

func TestConnectionBufferedWriteFlushesWithContentLength(t *testing.T) {
	c, written := newTestConnection(t)
	require.NoError(t, c.SetBuffered(0, 0))
	_, err := c.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	out := string(*written)
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, "content-length: 5")
	assert.Contains(t, out, "hello")
	assert.Equal(t, BodyEmitted, c.State())
}

func TestConnectionHeaderMutationRejectedAfterSend(t *testing.T) {
	c, _ := newTestConnection(t)
	require.NoError(t, c.SetBuffered(0, 0))
	_, err := c.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	assert.ErrorIs(t, c.SetStatus(404, ""), ErrHeaderSent)
	assert.ErrorIs(t, c.SetHeader("x", "y"), ErrHeaderSent)
}

func TestConnectionChunkedWriteEmitsTerminator(t *testing.T) {
	c, written := newTestConnection(t)
	require.NoError(t, c.SetChunked())
	_, err := c.Write([]byte("ab"))
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	out := string(*written)
	assert.Contains(t, out, "transfer-encoding: chunked")
	assert.Contains(t, out, "2\r\nab\r\n")
	assert.Contains(t, out, "0\r\n\r\n")
}

func TestConnectionKeepAliveClosedByClientHeader(t *testing.T) {
	c, _ := newTestConnection(t)
	c.Request.Headers["connection"] = "close"
	assert.False(t, c.KeepAlive())
}

func TestConnectionKeepAliveRequestClose(t *testing.T) {
	c, _ := newTestConnection(t)
	assert.True(t, c.KeepAlive())
	c.RequestClose()
	assert.False(t, c.KeepAlive())
}

func TestConnectionFinishReturnsCloseWhenRequested(t *testing.T) {
	c, _ := newTestConnection(t)
	require.NoError(t, c.SetBuffered(0, 0))
	c.RequestClose()
	intent := c.Finish()
	assert.Equal(t, FinishedClose, intent)
}

func TestConnectionTeardownRemovesUploadsOnce(t *testing.T) {
	c, _ := newTestConnection(t)

	f := t.TempDir() + "/upload"
	require.NoError(t, os.WriteFile(f, []byte("data"), 0o644))
	c.Request.Uploads = []httpparse.UploadedFile{{TempPath: f}}

	require.NoError(t, c.Teardown())
	_, statErr := os.Stat(f)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, c.Teardown())
}
