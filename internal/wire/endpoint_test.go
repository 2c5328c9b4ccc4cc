package wire

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointReadSomeReturnsWrittenBytes(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	go func() { _, _ = client.Write([]byte("hello")) }()

	ep := NewPlain(server)
	buf := make([]byte, 16)
	n, err := ep.ReadSome(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestEndpointPutBackReplaysBytes(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	go func() { _, _ = client.Write([]byte("xy")) }()

	ep := NewPlain(server)
	buf := make([]byte, 1)
	n, err := ep.ReadSome(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, ep.PutBack(buf[:n]))

	got := make([]byte, 1)
	n, err = ep.ReadSome(got)
	require.NoError(t, err)
	assert.Equal(t, buf[:1], got[:n])
}

func TestEndpointPutBackRejectsOversizedWindow(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	ep := NewPlain(server)
	err := ep.PutBack(make([]byte, minPutBack+1))
	assert.Error(t, err)
}

func TestEndpointWriteAllFlushesThroughToPeer(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	ep := NewPlain(server)
	require.NoError(t, ep.WriteAll([]byte("pong")))
	require.NoError(t, ep.Flush())

	assert.Equal(t, "pong", string(<-done))
}

func TestEndpointShutdownIsIdempotentAndRejectsFurtherIO(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	ep := NewPlain(server)
	require.NoError(t, ep.Shutdown())
	require.NoError(t, ep.Shutdown())

	_, err := ep.ReadSome(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)

	err = ep.WriteAll([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEndpointReadSomeWrapsUnderlyingErrorButPassesThroughEOF(t *testing.T) {
	client, server := net.Pipe()
	ep := NewPlain(server)

	require.NoError(t, client.Close())

	_, err := ep.ReadSome(make([]byte, 1))
	if err != io.EOF {
		var te *TransportError
		assert.ErrorAs(t, err, &te)
	}
}

func TestEndpointPeerMetadataAndSecureFlag(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	ep := NewPlain(server)
	assert.False(t, ep.Secure())
	// net.Pipe endpoints have no real address, but PeerIP/PeerPort must
	// not panic on whatever splitHostPort derives from it.
	_ = ep.PeerIP()
	_ = ep.PeerPort()
}

func TestEndpointSetReadDeadlineAppliesToNextRead(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	ep := NewPlain(server)
	require.NoError(t, ep.SetReadDeadline(time.Now().Add(-time.Second)))

	_, err := ep.ReadSome(make([]byte, 1))
	assert.Error(t, err)
}
