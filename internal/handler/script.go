package handler

import (
	"fmt"
	"os"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/script"
)

// Script runs the route's ScriptPath as a chunk in a fresh Bridge,
// grounded on original_source/lib/ScriptHandler.cpp: read the script
// file, run it, and on failure write a diagnostic into the response
// rather than crash the worker.
type Script struct{}

func (Script) Name() string { return "script" }

func (Script) Handle(c *conn.Connection, bridge *script.Bridge, route dispatch.Route) error {
	if route.ScriptPath == "" {
		return writeScriptError(c, "no script path defined for this route")
	}
	src, err := os.ReadFile(route.ScriptPath)
	if err != nil {
		return writeScriptError(c, fmt.Sprintf("script %q not readable", route.ScriptPath))
	}
	if err := bridge.ExecuteChunk(string(src), route.ScriptPath); err != nil {
		return writeScriptError(c, err.Error())
	}
	return c.Flush()
}

func writeScriptError(c *conn.Connection, msg string) error {
	if c.State() < conn.HeadersEmitted {
		_ = c.SetStatus(500, "")
		_ = c.SetBuffered(0, 0)
	}
	_, err := c.Write([]byte("Error in ScriptHandler: " + msg + "\r\n"))
	if err != nil {
		return err
	}
	return c.Flush()
}
