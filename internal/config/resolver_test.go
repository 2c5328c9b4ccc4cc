package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolverPrecedenceFlagWinsOverEnvAndDefault exercises the default -> env -> flag layering
// with the same values the specification's precedence walkthrough uses:
// default 4711, env override 1234, flag override 42.
func TestResolverPrecedenceFlagWinsOverEnvAndDefault(t *testing.T) {
	r := NewResolver()
	r.v.SetDefault("itest", 4711)

	t.Setenv("CSERVE_ITEST", "1234")
	assert.Equal(t, 1234, r.GetInt("itest"))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("itest", 4711, "")
	require.NoError(t, flags.Set("itest", "42"))
	require.NoError(t, r.BindFlags(flags))

	assert.Equal(t, 42, r.GetInt("itest"))
}

func TestResolverPrecedenceEnvWinsOverDefaultWhenFlagUnset(t *testing.T) {
	r := NewResolver()
	r.v.SetDefault("itest", 4711)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("itest", 4711, "")
	require.NoError(t, r.BindFlags(flags))

	t.Setenv("CSERVE_ITEST", "1234")
	assert.Equal(t, 1234, r.GetInt("itest"))
}

func TestResolverDefaultWhenEnvAndFlagUnset(t *testing.T) {
	r := NewResolver()
	r.v.SetDefault("itest", 4711)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("itest", 4711, "")
	require.NoError(t, r.BindFlags(flags))

	assert.Equal(t, 4711, r.GetInt("itest"))
}

func TestResolverMergeConfigScriptTable(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.MergeConfigScriptTable(map[string]interface{}{"port": 9090}))
	assert.Equal(t, 9090, r.GetInt("port"))
}
