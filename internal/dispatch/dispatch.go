// Package dispatch implements the route table: a per-method mapping
// from path prefix to handler, matched longest-prefix-first.
package dispatch

import (
	"errors"
	"strings"
	"sync"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/httpparse"
	"github.com/cserve/cserve/internal/script"
)

var errRouteAfterStart = errors.New("dispatch: cannot add a route after the server has started")

// Handler is the request-handler capability set every route target
// implements (§9 design note: the teacher's multi-inheritance request
// handler base maps onto this small interface).
type Handler interface {
	Name() string
	Handle(c *conn.Connection, bridge *script.Bridge, route Route) error
}

// Route is a (method, path-prefix, handler) triple.
type Route struct {
	Method  httpparse.Method
	Prefix  string
	Handler Handler
	// ScriptPath carries the "additional data" of a config-declared
	// route (§6 CLI --routes), e.g. the script file the handler runs.
	ScriptPath string
}

// Dispatcher is a frozen-after-start route table. Routes are registered
// during setup; Lookup is called once per request after that.
type Dispatcher struct {
	mu       sync.Mutex
	started  bool
	byMethod map[httpparse.Method][]Route
	Default  Handler
}

func New(defaultHandler Handler) *Dispatcher {
	return &Dispatcher{
		byMethod: map[httpparse.Method][]Route{},
		Default:  defaultHandler,
	}
}

// AddRoute registers a route. Disallowed after Start.
func (d *Dispatcher) AddRoute(r Route) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return errRouteAfterStart
	}
	d.byMethod[r.Method] = append(d.byMethod[r.Method], r)
	return nil
}

// Start freezes the route table; AddRoute fails after this point.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
}

// Lookup finds the route whose prefix is the longest prefix of path
// (a prefix equal to the whole path counts) among routes registered
// for method. Ties are broken by
// insertion order (first registered wins) — an explicit, deterministic
// choice for an otherwise-undefined tie-break (§9 Open Question).
func (d *Dispatcher) Lookup(method httpparse.Method, path string) (Route, bool) {
	routes := d.byMethod[method]
	best := -1
	var bestRoute Route
	for i, r := range routes {
		if !strings.HasPrefix(path, r.Prefix) {
			continue
		}
		if len(r.Prefix) > best {
			best = len(r.Prefix)
			bestRoute = r
		}
	}
	if best < 0 {
		return Route{}, false
	}
	return bestRoute, true
}
