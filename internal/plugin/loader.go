// Package plugin implements PluginLoader: dynamic loading of .so
// handler plugins via stdlib plugin.Open/Lookup, the direct analogue of
// the original's dlopen/dlsym symbol resolution (§4.9). No ecosystem
// library replaces this — see DESIGN.md.
package plugin

import (
	"fmt"
	"plugin"
	"sync"

	"github.com/cserve/cserve/internal/dispatch"
)

// handle owns one loaded plugin: the Handler it produced, plus the
// destroyer symbol to call when the handle is released, mirroring the
// original's create_<name>/destroy_<name> C-linkage symbol pair.
type handle struct {
	p       *plugin.Plugin
	h       dispatch.Handler
	destroy func()
}

// Loader resolves create_<name>/destroy_<name> symbol pairs out of
// handler plugin shared objects and caches the resulting handles by
// name.
type Loader struct {
	mu      sync.Mutex
	handles map[string]*handle
}

func NewLoader() *Loader {
	return &Loader{handles: map[string]*handle{}}
}

// Load opens the .so at path exactly once, looks up create_<name> and
// destroy_<name>, and calls the creator to obtain a Handler. Subsequent
// calls with the same name return the cached Handler. Symbol resolution
// failure is returned to the caller, who is expected to abort startup
// and log it, per the specification.
func (l *Loader) Load(name, path string) (dispatch.Handler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.handles[name]; ok {
		return h.h, nil
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: open %s: %w", path, err)
	}

	createSym, err := p.Lookup("create_" + name)
	if err != nil {
		return nil, fmt.Errorf("plugin: lookup create_%s in %s: %w", name, path, err)
	}
	create, ok := createSym.(func() dispatch.Handler)
	if !ok {
		return nil, fmt.Errorf("plugin: %s's create_%s has the wrong signature", path, name)
	}

	destroySym, err := p.Lookup("destroy_" + name)
	if err != nil {
		return nil, fmt.Errorf("plugin: lookup destroy_%s in %s: %w", name, path, err)
	}
	destroy, ok := destroySym.(func())
	if !ok {
		return nil, fmt.Errorf("plugin: %s's destroy_%s has the wrong signature", path, name)
	}

	h := create()
	l.handles[name] = &handle{p: p, h: h, destroy: destroy}
	return h, nil
}

// Close calls every loaded handle's destroyer, the owning-handle
// drop behavior the specification describes. Go never unloads a
// plugin's code, only its own per-instance state.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, h := range l.handles {
		h.destroy()
		delete(l.handles, name)
	}
}
