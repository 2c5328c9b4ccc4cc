// Package script implements the ScriptBridge: an embedded ECMAScript
// interpreter (goja) per request, the "server" capability table exposed
// to scripts, and the LuaValue marshalling contract between native Go
// values and interpreter values (§4.7). The spec's vocabulary ("Lua",
// "chunk") is kept even though the concrete engine is goja — see
// SPEC_FULL.md's REDESIGN FLAG section.
package script

import "github.com/dop251/goja"

// Kind tags a LuaValue's active field.
type Kind int

const (
	KindUndefined Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindArray
	KindTable
)

// LuaValue is the tagged union used to marshal values across the
// native/script boundary, per specification §3.
type LuaValue struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Array []LuaValue
	Table map[string]LuaValue
}

func Undefined() LuaValue { return LuaValue{Kind: KindUndefined} }
func Int(v int64) LuaValue { return LuaValue{Kind: KindInt, Int: v} }
func Float(v float64) LuaValue { return LuaValue{Kind: KindFloat, Float: v} }
func Str(v string) LuaValue { return LuaValue{Kind: KindString, Str: v} }
func Bool(v bool) LuaValue { return LuaValue{Kind: KindBool, Bool: v} }

func Array(vs ...LuaValue) LuaValue { return LuaValue{Kind: KindArray, Array: vs} }

func Table(m map[string]LuaValue) LuaValue { return LuaValue{Kind: KindTable, Table: m} }

// ToGoja converts a LuaValue to a goja.Value bound to rt.
func ToGoja(rt *goja.Runtime, v LuaValue) goja.Value {
	switch v.Kind {
	case KindInt:
		return rt.ToValue(v.Int)
	case KindFloat:
		return rt.ToValue(v.Float)
	case KindString:
		return rt.ToValue(v.Str)
	case KindBool:
		return rt.ToValue(v.Bool)
	case KindArray:
		arr := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			arr[i] = ToGoja(rt, e)
		}
		return rt.ToValue(arr)
	case KindTable:
		obj := map[string]interface{}{}
		for k, e := range v.Table {
			obj[k] = ToGoja(rt, e)
		}
		return rt.ToValue(obj)
	default:
		return goja.Undefined()
	}
}

// FromGoja converts a goja.Value back to a LuaValue, recursively, and
// demotes integral floats to KindInt per specification §4.7.
func FromGoja(rt *goja.Runtime, val goja.Value) LuaValue {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return Undefined()
	}
	exported := val.Export()
	return FromGo(exported)
}

// FromGo converts an exported Go value (as produced by goja's Export)
// into a LuaValue.
func FromGo(exported interface{}) LuaValue {
	switch e := exported.(type) {
	case nil:
		return Undefined()
	case int64:
		return Int(e)
	case int:
		return Int(int64(e))
	case float64:
		if e == float64(int64(e)) {
			return Int(int64(e))
		}
		return Float(e)
	case string:
		return Str(e)
	case bool:
		return Bool(e)
	case []interface{}:
		out := make([]LuaValue, len(e))
		for i, elem := range e {
			out[i] = FromGo(elem)
		}
		return Array(out...)
	case map[string]interface{}:
		out := make(map[string]LuaValue, len(e))
		for k, elem := range e {
			out[k] = FromGo(elem)
		}
		return Table(out)
	default:
		return Undefined()
	}
}

// ToAny converts a LuaValue to a plain Go value tree (used by
// table_to_json / json_to_table and config-script ingestion).
func ToAny(v LuaValue) interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	case KindArray:
		out := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			out[i] = ToAny(e)
		}
		return out
	case KindTable:
		out := make(map[string]interface{}, len(v.Table))
		for k, e := range v.Table {
			out[k] = ToAny(e)
		}
		return out
	default:
		return nil
	}
}

// FromAny is the inverse of ToAny.
func FromAny(v interface{}) LuaValue { return FromGo(v) }
