// Package handler implements the built-in dispatch.Handler
// implementations: the default 404 fallback, a liveness ping, a static
// file server, and the script-backed handler that drives a ScriptBridge.
package handler

import (
	"strconv"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/script"
)

// Default is the fallback handler the Dispatcher invokes when no route
// matches: 404 with body "No handler available" (§4.4).
type Default struct{}

func (Default) Name() string { return "default" }

func (Default) Handle(c *conn.Connection, _ *script.Bridge, _ dispatch.Route) error {
	if err := c.SetStatus(404, ""); err != nil {
		return err
	}
	body := []byte("No handler available")
	if err := c.SetHeader("content-length", strconv.Itoa(len(body))); err != nil {
		return err
	}
	_, err := c.Write(body)
	if err != nil {
		return err
	}
	return c.Flush()
}
