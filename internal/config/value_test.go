package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cserve/cserve/internal/httpparse"
)

func TestParseRouteListSingle(t *testing.T) {
	routes, err := ParseRouteList("GET:/hello:hello.lua")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, httpparse.GET, routes[0].Method)
	assert.Equal(t, "/hello", routes[0].Prefix)
	assert.Equal(t, "hello.lua", routes[0].ScriptPath)
}

func TestParseRouteListMultiple(t *testing.T) {
	routes, err := ParseRouteList("GET:/a:a.lua,POST:/b:b.lua")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "/b", routes[1].Prefix)
}

func TestParseRouteListEmpty(t *testing.T) {
	routes, err := ParseRouteList("")
	require.NoError(t, err)
	assert.Nil(t, routes)
}

func TestParseRouteListMalformed(t *testing.T) {
	_, err := ParseRouteList("GET:/hello")
	assert.Error(t, err)
}
