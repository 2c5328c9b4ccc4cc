package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/httpparse"
)

func TestDefaultHandlerWrites404(t *testing.T) {
	c, written := newTestConn(t, httpparse.GET, "/nope")
	require.NoError(t, Default{}.Handle(c, nil, dispatch.Route{}))

	out := string(*written)
	assert.Contains(t, out, "HTTP/1.1 404 Not Found")
	assert.Contains(t, out, "No handler available")
}

func TestPingHandlerWritesPong(t *testing.T) {
	c, written := newTestConn(t, httpparse.GET, "/ping")
	require.NoError(t, Ping{}.Handle(c, nil, dispatch.Route{}))

	out := string(*written)
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, "pong")
}
