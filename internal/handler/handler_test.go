package handler

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/httpparse"
	"github.com/cserve/cserve/internal/wire"
)

// newTestConn returns a Connection wired to a drained net.Pipe endpoint,
// plus a pointer to the bytes the peer received, so tests can assert on
// the emitted response without a real socket.
func newTestConn(t *testing.T, method httpparse.Method, path string) (*conn.Connection, *[]byte) {
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

	req := httpparse.NewRequest()
	req.Method = method
	req.Path = path

	c := conn.New(wire.NewPlain(server), req, time.Minute, zap.NewNop())
	return c, &written
}
