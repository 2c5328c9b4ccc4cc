package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlagsDeclaresDefaults(t *testing.T) {
	f := NewFlags()
	port, err := f.Set().GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	loglevel, err := f.Set().GetString("loglevel")
	require.NoError(t, err)
	assert.Equal(t, "info", loglevel)
}

func TestNewRootCommandBindsFlagsIntoResolver(t *testing.T) {
	var gotPort int
	root := NewRootCommand(NewFlags(), func(r *Resolver) error {
		gotPort = r.GetInt("port")
		return nil
	})
	root.SetArgs([]string{"--port", "9090"})

	require.NoError(t, root.Execute())
	assert.Equal(t, 9090, gotPort)
}

func TestNewRootCommandMergesConfigScriptBeneathFlags(t *testing.T) {
	dir := t.TempDir()
	scriptPath := dir + "/cserve.conf.js"
	require.NoError(t, os.WriteFile(scriptPath, []byte(`var cserve = {port: 7000, nthreads: 8};`), 0o644))

	var gotPort, gotThreads int
	root := NewRootCommand(NewFlags(), func(r *Resolver) error {
		gotPort = r.GetInt("port")
		gotThreads = r.GetInt("nthreads")
		return nil
	})
	root.SetArgs([]string{"--config", scriptPath, "--nthreads", "16"})

	require.NoError(t, root.Execute())
	assert.Equal(t, 7000, gotPort)
	assert.Equal(t, 16, gotThreads)
}
