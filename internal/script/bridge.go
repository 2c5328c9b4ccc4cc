package script

import (
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/capability"
	"github.com/cserve/cserve/internal/conn"
)

// Deps are the capabilities a Bridge wires into the "server" table. They
// are constructed once at startup and shared read-only across requests;
// the goja.Runtime itself is fresh per request (§4.7 invariant: no
// interpreter state survives across requests).
type Deps struct {
	JWT      *capability.JWT
	FS       *capability.FS
	HTTP     *capability.HTTPClient
	JSON     *capability.JSONTable
	UUID     *capability.UUIDCodec
	Mime     *capability.MimeInspector
	// SQLiteOpen backs server.sqlite.open(path, mode) (§4.10); nil
	// disables the capability.
	SQLiteOpen func(path string, mode capability.SQLiteMode) (*capability.SQLiteStore, error)
	Log        *zap.Logger
	Shutdown   func()
}

// Bridge is a single request's script execution context: one goja
// runtime, bound to one Connection, exposing the "server" capability
// table. A Bridge is used for exactly one request and discarded.
type Bridge struct {
	rt   *goja.Runtime
	conn *conn.Connection
	deps Deps
}

// New builds a fresh interpreter for c and registers the server table.
func New(c *conn.Connection, deps Deps) *Bridge {
	rt := goja.New()
	b := &Bridge{rt: rt, conn: c, deps: deps}
	rt.Set("server", b.buildServerTable())
	return b
}

// ExecuteChunk compiles and runs source as a top-level script, the
// counterpart of the original execute_chunk entry point.
func (b *Bridge) ExecuteChunk(source, origin string) error {
	prog, err := goja.Compile(origin, source, false)
	if err != nil {
		return fmt.Errorf("script: compile %s: %w", origin, err)
	}
	_, err = b.rt.RunProgram(prog)
	if err != nil {
		return fmt.Errorf("script: run %s: %w", origin, err)
	}
	return nil
}

// ExecuteFunction calls a top-level function previously defined by a
// chunk already run in this runtime, the counterpart of
// execute_function. Results are marshalled back through LuaValue.
func (b *Bridge) ExecuteFunction(name string, args []LuaValue) ([]LuaValue, error) {
	fnVal := b.rt.Get(name)
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, fmt.Errorf("script: %q is not a function", name)
	}
	gojaArgs := make([]goja.Value, len(args))
	for i, a := range args {
		gojaArgs[i] = ToGoja(b.rt, a)
	}
	res, err := fn(goja.Undefined(), gojaArgs...)
	if err != nil {
		return nil, fmt.Errorf("script: call %s: %w", name, err)
	}
	return []LuaValue{FromGoja(b.rt, res)}, nil
}

// Runtime exposes the underlying interpreter for capability functions
// that need to construct goja values directly (e.g. returning tables).
func (b *Bridge) Runtime() *goja.Runtime { return b.rt }

func (b *Bridge) throw(err error) {
	panic(b.rt.ToValue(err.Error()))
}
