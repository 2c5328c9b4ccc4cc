package handler

import (
	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/script"
)

// Test echoes request metadata back as the response body: method, path,
// and every query/post parameter, one per line. It exists for manual
// and scenario-test probing of the parser and dispatcher end to end,
// the role th/utils.go's test helpers play for the teacher's own test
// suite.
type Test struct{}

func (Test) Name() string { return "test" }

func (Test) Handle(c *conn.Connection, _ *script.Bridge, _ dispatch.Route) error {
	if err := c.SetBuffered(256, 256); err != nil {
		return err
	}
	write := func(line string) {
		c.Write([]byte(line))
		c.Write([]byte("\n"))
	}
	write("method=" + c.Request.Method.String())
	write("path=" + c.Request.Path)
	for k, v := range c.Request.Query {
		write("query." + k + "=" + v)
	}
	for k, v := range c.Request.PostParams {
		write("post." + k + "=" + v)
	}
	return c.Flush()
}
