package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cserve/cserve/internal/config"
	"github.com/cserve/cserve/internal/httpparse"
)

func newTestResolver(t *testing.T, overrides map[string]string) *config.Resolver {
	t.Helper()
	flags := config.NewFlags()
	for k, v := range overrides {
		require.NoError(t, flags.Set().Set(k, v))
	}
	r := config.NewResolver()
	require.NoError(t, r.BindFlags(flags.Set()))
	return r
}

func TestBuildDispatcherRegistersBuiltinAndScriptRoutes(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"routes":    "GET:/ping:ping,POST:/run:somescript.js",
		"scriptdir": "",
	})

	d, err := buildDispatcher(r, "")
	require.NoError(t, err)
	d.Start()

	route, ok := d.Lookup(httpparse.GET, "/ping")
	require.True(t, ok)
	assert.Equal(t, "ping", route.Handler.Name())

	route, ok = d.Lookup(httpparse.POST, "/run")
	require.True(t, ok)
	assert.Equal(t, "script", route.Handler.Name())
}

func TestBuildDispatcherRegistersFileHandlerWhenScriptdirSet(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"routes":    "GET:/static:file",
		"scriptdir": "/var/www",
	})

	d, err := buildDispatcher(r, "/var/www")
	require.NoError(t, err)
	d.Start()

	route, ok := d.Lookup(httpparse.GET, "/static")
	require.True(t, ok)
	assert.Equal(t, "file", route.Handler.Name())
}

func TestBuildDispatcherRejectsMalformedRoutes(t *testing.T) {
	r := newTestResolver(t, map[string]string{"routes": "not-a-route"})

	_, err := buildDispatcher(r, "")
	assert.Error(t, err)
}

func TestBuildListenersFailsWhenNeitherPortConfigured(t *testing.T) {
	r := newTestResolver(t, map[string]string{"port": "0", "sslport": "0"})

	_, err := buildListeners(r, nil)
	assert.Error(t, err)
}

func TestBuildListenersOpensPlainPort(t *testing.T) {
	r := newTestResolver(t, map[string]string{"port": "18080", "sslport": "0"})

	listeners, err := buildListeners(r, nil)
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	for _, l := range listeners {
		_ = l.NetListener.Close()
	}
}

func TestPadJWTKeyPadsShortSecretTo32Bytes(t *testing.T) {
	got := padJWTKey("short")
	assert.Len(t, got, 32)
	assert.Equal(t, "short", string(got[:5]))
}

func TestPadJWTKeyLeavesLongSecretUntouched(t *testing.T) {
	secret := "this-secret-is-already-forty-bytes-long!"
	got := padJWTKey(secret)
	assert.Equal(t, secret, string(got))
}
