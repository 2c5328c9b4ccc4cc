package config

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/cserve/cserve/internal/script"
)

// LoadConfigScript runs a --config goja chunk and extracts the
// top-level table named tableName (default "cserve"), returning it as
// a map[string]interface{} ready for Resolver.MergeConfigScriptTable.
// It reuses the ScriptBridge marshalling contract rather than a second
// JS-to-Go conversion path (§4.8).
func LoadConfigScript(source, origin, tableName string) (map[string]interface{}, error) {
	rt := goja.New()
	prog, err := goja.Compile(origin, source, false)
	if err != nil {
		return nil, fmt.Errorf("config: compile %s: %w", origin, err)
	}
	if _, err := rt.RunProgram(prog); err != nil {
		return nil, fmt.Errorf("config: run %s: %w", origin, err)
	}
	val := rt.Get(tableName)
	if val == nil || goja.IsUndefined(val) {
		return nil, fmt.Errorf("config: %s does not define table %q", origin, tableName)
	}
	lv := script.FromGoja(rt, val)
	asAny := script.ToAny(lv)
	table, ok := asAny.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("config: %s table %q is not an object", origin, tableName)
	}
	return table, nil
}
