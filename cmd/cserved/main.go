// Command cserved is the cserve HTTP server entrypoint: resolve
// configuration, build the dispatcher and its built-in and script
// routes, start the worker pool, and run the accept loop until a
// SIGINT/SIGTERM.
package main

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/accept"
	"github.com/cserve/cserve/internal/capability"
	"github.com/cserve/cserve/internal/config"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/handler"
	"github.com/cserve/cserve/internal/logging"
	"github.com/cserve/cserve/internal/script"
	"github.com/cserve/cserve/internal/wire"
	"github.com/cserve/cserve/internal/worker"
)

func main() {
	flags := config.NewFlags()
	root := config.NewRootCommand(flags, run)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(r *config.Resolver) error {
	level, err := r.GetLogLevel("loglevel")
	if err != nil {
		return err
	}
	log, err := logging.New(level)
	if err != nil {
		return err
	}
	defer log.Sync()

	jwtKey := padJWTKey(r.GetString("jwtkey"))
	maxPost, err := r.GetDataSize("maxpost")
	if err != nil {
		return err
	}
	tmpDir := r.GetString("tmpdir")
	keepAlive := time.Duration(r.GetInt("keepalive")) * time.Second

	deps := script.Deps{
		JWT:        capability.NewJWT(jwtKey),
		FS:         capability.NewFS(),
		HTTP:       capability.NewHTTPClient(30 * time.Second),
		JSON:       capability.NewJSONTable(),
		UUID:       capability.NewUUIDCodec(),
		Mime:       capability.NewMimeInspector(),
		SQLiteOpen: capability.Open,
		Log:        log,
		Shutdown:   func() { os.Exit(0) },
	}

	dispatcher, err := buildDispatcher(r, tmpDir)
	if err != nil {
		return err
	}

	var initScript *worker.InitScript
	if path := r.GetString("initscript"); path != "" {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("main: read initscript: %w", err)
		}
		initScript = &worker.InitScript{Source: string(src), Origin: path}
	}

	pool := worker.NewPool(r.GetInt("nthreads"), dispatcher, deps, initScript, log)
	dispatcher.Start()

	listeners, err := buildListeners(r, log)
	if err != nil {
		return err
	}

	if userid := r.GetString("userid"); userid != "" {
		if err := dropPrivileges(userid, log); err != nil {
			return err
		}
	}

	loop := accept.New(listeners, pool, int64(maxPost), tmpDir, keepAlive, log)
	log.Info("cserved starting",
		zap.Int("port", r.GetInt("port")),
		zap.Int("sslport", r.GetInt("sslport")),
		zap.Int("nthreads", r.GetInt("nthreads")))
	loop.Run()
	return nil
}

func buildDispatcher(r *config.Resolver, tmpDir string) (*dispatch.Dispatcher, error) {
	d := dispatch.New(handler.Default{})

	builtins := map[string]dispatch.Handler{
		"ping":   handler.Ping{},
		"test":   handler.Test{},
		"script": handler.Script{},
	}
	if root := r.GetString("scriptdir"); root != "" {
		builtins["file"] = handler.File{Root: root}
	}

	routes, err := r.GetRouteList("routes")
	if err != nil {
		return nil, err
	}
	for _, spec := range routes {
		h, ok := builtins[spec.ScriptPath]
		if !ok {
			h = handler.Script{}
		}
		if err := d.AddRoute(dispatch.Route{
			Method:     spec.Method,
			Prefix:     spec.Prefix,
			Handler:    h,
			ScriptPath: spec.ScriptPath,
		}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func buildListeners(r *config.Resolver, log *zap.Logger) ([]accept.Listener, error) {
	var out []accept.Listener

	port := r.GetInt("port")
	if port > 0 {
		ln, err := wire.ListenKeepAlive(fmt.Sprintf(":%d", port), 3*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("main: listen plain: %w", err)
		}
		out = append(out, accept.Listener{NetListener: ln, Kind: accept.KindListen})
	}

	sslport := r.GetInt("sslport")
	if sslport > 0 {
		cert, key := r.GetString("sslcert"), r.GetString("sslkey")
		transport, err := wire.NewTLSTransport(cert, key)
		if err != nil {
			return nil, fmt.Errorf("main: load TLS material: %w", err)
		}
		ln, err := wire.ListenKeepAlive(fmt.Sprintf(":%d", sslport), 3*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("main: listen secure: %w", err)
		}
		out = append(out, accept.Listener{NetListener: ln, Secure: transport, Kind: accept.KindSecureListen})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("main: no listener configured (set --port and/or --sslport)")
	}
	return out, nil
}

// dropPrivileges switches the running process to userid via setgid/setuid
// (§6 --userid), called after listeners are bound so binding privileged
// ports can still happen as root. Requires the process to currently be
// root; group is dropped before user so the setgid call itself doesn't
// lose permission partway through.
func dropPrivileges(userid string, log *zap.Logger) error {
	if os.Getuid() != 0 {
		return fmt.Errorf("main: --userid %s requires running as root", userid)
	}
	u, err := user.Lookup(userid)
	if err != nil {
		return fmt.Errorf("main: lookup user %s: %w", userid, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("main: parse uid for %s: %w", userid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("main: parse gid for %s: %w", userid, err)
	}
	if err := syscall.Setgid(gid); err != nil {
		return fmt.Errorf("main: setgid %d: %w", gid, err)
	}
	if err := syscall.Setuid(uid); err != nil {
		return fmt.Errorf("main: setuid %d: %w", uid, err)
	}
	log.Info("dropped privileges", zap.String("userid", userid), zap.Int("uid", uid), zap.Int("gid", gid))
	return nil
}

// padJWTKey right-pads a short secret to 32 bytes with zero bytes, per
// spec.md §6's "padded to 32 bytes" contract for --jwtkey.
func padJWTKey(secret string) []byte {
	if len(secret) >= 32 {
		return []byte(secret)
	}
	return []byte(secret + strings.Repeat("\x00", 32-len(secret)))
}
