package handler

import (
	"strconv"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/script"
)

// Ping is a liveness handler: always 200 OK with body "pong". It has no
// original-source counterpart; it fills the "a few worked examples of
// the Handler trait" slot spec.md's §8 scenario 1 (Simple GET) asks for.
type Ping struct{}

func (Ping) Name() string { return "ping" }

func (Ping) Handle(c *conn.Connection, _ *script.Bridge, _ dispatch.Route) error {
	body := []byte("pong")
	if err := c.SetHeader("content-length", strconv.Itoa(len(body))); err != nil {
		return err
	}
	if _, err := c.Write(body); err != nil {
		return err
	}
	return c.Flush()
}
