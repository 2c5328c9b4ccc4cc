package httpparse

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cserve/cserve/internal/wire"
)

func pipeEndpoint(t *testing.T, raw string) wire.Endpoint {
	t.Helper()
	client, server := net.Pipe()
	go func() {
		_, _ = client.Write([]byte(raw))
	}()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })
	return wire.NewPlain(server)
}

func TestParseRequestSimpleGet(t *testing.T) {
	ep := pipeEndpoint(t, "GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\n\r\n")

	req, err := ParseRequest(ep, Options{})
	require.NoError(t, err)
	assert.Equal(t, GET, req.Method)
	assert.Equal(t, "/hello", req.Path)
	assert.Equal(t, "example.com", req.Host)
	assert.Equal(t, "1", req.Query["x"])
}

func TestParseRequestRejectsMalformedHeader(t *testing.T) {
	ep := pipeEndpoint(t, "GET / HTTP/1.1\r\nHost: example.com\r\nBad Header Name: value\r\n\r\n")

	_, err := ParseRequest(ep, Options{})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestParseRequestMultipartUpload(t *testing.T) {
	body := "--B\r\n" +
		"Content-Disposition: form-data; name=\"name\"\r\n\r\n" +
		"alice\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"hi\r\n" +
		"--B--\r\n"

	raw := "POST /upload HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Content-Type: multipart/form-data; boundary=B\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" +
		body

	ep := pipeEndpoint(t, raw)
	tmp := t.TempDir()

	req, err := ParseRequest(ep, Options{TempDir: tmp})
	require.NoError(t, err)
	assert.Equal(t, "alice", req.PostParams["name"])
	require.Len(t, req.Uploads, 1)
	assert.Equal(t, "a.txt", req.Uploads[0].OriginalName)
	assert.Equal(t, int64(2), req.Uploads[0].SizeBytes)
}
