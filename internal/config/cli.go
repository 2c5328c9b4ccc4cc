package config

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds the CLI surface (§6), declared with pflag and bound into
// a Resolver via BindFlags.
type Flags struct {
	set *pflag.FlagSet
}

// NewFlags declares every flag in the specification's CLI table.
func NewFlags() *Flags {
	fs := pflag.NewFlagSet("cserved", pflag.ContinueOnError)
	fs.String("config", "", "config script path")
	fs.Int("port", 8080, "plain HTTP port")
	fs.Int("sslport", 0, "secure port")
	fs.String("sslcert", "", "secure-transport certificate file")
	fs.String("sslkey", "", "secure-transport key file")
	fs.Int("nthreads", 4, "worker pool size")
	fs.String("userid", "", "drop privileges to this user")
	fs.String("tmpdir", os.TempDir(), "upload scratch directory")
	fs.String("scriptdir", ".", "script search root")
	fs.String("initscript", "", "script run before every request")
	fs.Int("keepalive", 5, "keep-alive idle seconds")
	fs.String("maxpost", "64MB", "body size limit")
	fs.String("jwtkey", "", "HS256 secret, padded to 32 bytes")
	fs.String("loglevel", "info", "one of trace/debug/info/warn/err/critical/off")
	fs.String("routes", "", "comma-separated METHOD:/path:script entries")
	return &Flags{set: fs}
}

func (f *Flags) Set() *pflag.FlagSet { return f.set }

// NewRootCommand builds the cobra root command, parsing args into fs
// and invoking run once flags are bound into a Resolver. This mirrors
// docker-compose's cobra+pflag CLI scaffolding, kept minimal since
// cserved has a single mode of operation today (subcommands are a seam
// for future growth, not wired to anything yet).
func NewRootCommand(flags *Flags, run func(r *Resolver) error) *cobra.Command {
	root := &cobra.Command{
		Use:           "cserved",
		Short:         "cserve HTTP server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Flags().AddFlagSet(flags.Set())
	root.RunE = func(cmd *cobra.Command, args []string) error {
		r := NewResolver()
		if err := r.BindFlags(flags.Set()); err != nil {
			return err
		}
		if scriptPath := r.GetString("config"); scriptPath != "" {
			src, err := os.ReadFile(scriptPath)
			if err != nil {
				return err
			}
			table, err := LoadConfigScript(string(src), scriptPath, "cserve")
			if err != nil {
				return err
			}
			if err := r.MergeConfigScriptTable(table); err != nil {
				return err
			}
			// Flags/env must still win over the config script: rebind
			// them now that the script layer has been merged beneath.
			if err := r.BindFlags(flags.Set()); err != nil {
				return err
			}
		}
		return run(r)
	}
	return root
}
