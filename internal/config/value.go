package config

import (
	"fmt"

	"github.com/cserve/cserve/internal/httpparse"
	"github.com/cserve/cserve/internal/logging"
)

// Kind tags a ConfigValue's active field, mirroring cserve's ConfValue
// discriminated-union config option type.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindDataSize
	KindLogLevel
	KindRouteList
)

// ConfigValue is a single resolved, typed configuration option.
type ConfigValue struct {
	Kind      Kind
	Int       int64
	Float     float64
	String    string
	DataSize  DataSize
	LogLevel  logging.Level
	RouteList []RouteSpec
}

// RouteSpec is one parsed "--routes" entry: METHOD:/path:script.
type RouteSpec struct {
	Method     httpparse.Method
	Prefix     string
	ScriptPath string
}

// ParseRouteList parses a comma-separated list of "METHOD:/path:script"
// entries, the wire format of --routes.
func ParseRouteList(s string) ([]RouteSpec, error) {
	if s == "" {
		return nil, nil
	}
	var out []RouteSpec
	for _, entry := range splitTop(s, ',') {
		parts := splitTop(entry, ':')
		if len(parts) != 3 {
			return nil, fmt.Errorf("config: malformed route entry %q, want METHOD:/path:script", entry)
		}
		out = append(out, RouteSpec{
			Method:     httpparse.ParseMethod(parts[0]),
			Prefix:     parts[1],
			ScriptPath: parts[2],
		})
	}
	return out, nil
}

func splitTop(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
