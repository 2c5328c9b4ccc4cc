// Package config implements the four-layer ConfigResolver: built-in
// defaults, a config-script table, environment variables, and CLI
// flags, each layer overriding the one before it (§4.8). Layering is
// delegated to spf13/viper; the CLI surface is spf13/pflag + spf13/cobra.
package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cserve/cserve/internal/logging"
)

const envPrefix = "CSERVE"

// Resolver resolves typed configuration options through the four-layer
// precedence contract.
type Resolver struct {
	v *viper.Viper
}

// NewResolver builds a Resolver pre-loaded with the specification's
// built-in defaults (§6).
func NewResolver() *Resolver {
	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("sslport", 0)
	v.SetDefault("sslcert", "")
	v.SetDefault("sslkey", "")
	v.SetDefault("nthreads", 4)
	v.SetDefault("userid", "")
	v.SetDefault("tmpdir", os.TempDir())
	v.SetDefault("scriptdir", ".")
	v.SetDefault("initscript", "")
	v.SetDefault("keepalive", 5)
	v.SetDefault("maxpost", "64MB")
	v.SetDefault("jwtkey", "")
	v.SetDefault("loglevel", "info")
	v.SetDefault("routes", "")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &Resolver{v: v}
}

// MergeConfigScriptTable merges the config-script layer (the table a
// --config goja chunk produced) beneath the env/flag layers, per §4.8.
func (r *Resolver) MergeConfigScriptTable(table map[string]interface{}) error {
	return r.v.MergeConfigMap(table)
}

// BindFlags wires a pflag.FlagSet as the top-priority layer.
func (r *Resolver) BindFlags(flags *pflag.FlagSet) error {
	return r.v.BindPFlagSet(flags)
}

func (r *Resolver) GetString(key string) string { return r.v.GetString(key) }
func (r *Resolver) GetInt(key string) int       { return r.v.GetInt(key) }

func (r *Resolver) GetDataSize(key string) (DataSize, error) {
	return ParseDataSize(r.v.GetString(key))
}

func (r *Resolver) GetLogLevel(key string) (logging.Level, error) {
	return logging.ParseLevel(strings.ToLower(r.v.GetString(key)))
}

func (r *Resolver) GetRouteList(key string) ([]RouteSpec, error) {
	return ParseRouteList(r.v.GetString(key))
}

// Value returns the fully-typed ConfigValue for one of the well-known
// keys, dispatching on the kind the specification assigns it.
func (r *Resolver) Value(key string) (ConfigValue, error) {
	switch key {
	case "port", "sslport", "nthreads", "keepalive":
		return ConfigValue{Kind: KindInt, Int: int64(r.GetInt(key))}, nil
	case "maxpost":
		ds, err := r.GetDataSize(key)
		if err != nil {
			return ConfigValue{}, err
		}
		return ConfigValue{Kind: KindDataSize, DataSize: ds}, nil
	case "loglevel":
		lv, err := r.GetLogLevel(key)
		if err != nil {
			return ConfigValue{}, err
		}
		return ConfigValue{Kind: KindLogLevel, LogLevel: lv}, nil
	case "routes":
		rs, err := r.GetRouteList(key)
		if err != nil {
			return ConfigValue{}, err
		}
		return ConfigValue{Kind: KindRouteList, RouteList: rs}, nil
	default:
		return ConfigValue{Kind: KindString, String: r.GetString(key)}, nil
	}
}
