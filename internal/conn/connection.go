// Package conn implements Connection, the handler's sole window onto a
// single HTTP request/response: request metadata, response buffering,
// header/body emission, cookie handling, and keep-alive policy.
package conn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/httpparse"
	"github.com/cserve/cserve/internal/wire"
)

// ErrHeaderSent is returned by any header mutation attempted after the
// response header has already been written to the wire.
var ErrHeaderSent = errors.New("conn: response header already sent")

// Intent is the worker's verdict on a finished request, reported back to
// the accept loop so it knows whether to re-poll or close the socket.
type Intent int

const (
	FinishedKeepAlive Intent = iota
	FinishedClose
)

// Connection is the handler's sole window onto the request/response.
type Connection struct {
	Request *httpparse.Request
	resp    *Response

	ep     wire.Endpoint
	log    *zap.Logger
	state  State

	keepAliveWindow time.Duration
	closeRequested  bool
}

// New builds a Connection over an already-parsed Request and the
// endpoint it was read from.
func New(ep wire.Endpoint, req *httpparse.Request, keepAliveWindow time.Duration, log *zap.Logger) *Connection {
	return &Connection{
		Request:         req,
		resp:            newResponse(),
		ep:              ep,
		log:             log,
		state:           HeadersParsed,
		keepAliveWindow: keepAliveWindow,
	}
}

func (c *Connection) State() State { return c.state }

// --- response operations exposed to handlers (§4.3) ---

func (c *Connection) SetStatus(code int, phrase string) error {
	if c.resp.HeaderSent {
		return ErrHeaderSent
	}
	c.resp.StatusCode = code
	if phrase == "" {
		phrase = statusPhrase(code)
	}
	c.resp.StatusPhrase = phrase
	return nil
}

func (c *Connection) SetHeader(name, value string) error {
	if c.resp.HeaderSent {
		return ErrHeaderSent
	}
	c.resp.Headers[name] = value
	return nil
}

func (c *Connection) AddCookie(ck Cookie) error {
	if c.resp.HeaderSent {
		return ErrHeaderSent
	}
	c.resp.Cookies = append(c.resp.Cookies, ck)
	return nil
}

func (c *Connection) SetBuffered(initial, growth int) error {
	if c.resp.HeaderSent {
		return ErrHeaderSent
	}
	if initial <= 0 {
		initial = 4096
	}
	c.resp.Mode = Buffered
	c.resp.Buffer = make([]byte, 0, initial)
	return nil
}

func (c *Connection) SetChunked() error {
	if c.resp.HeaderSent {
		return ErrHeaderSent
	}
	c.resp.Mode = Chunked
	return nil
}

// Write appends to the buffered output, or streams directly when
// chunked/fixed, per the output-mode contract in §4.3.
func (c *Connection) Write(b []byte) (int, error) {
	c.state = HandlerRunning
	switch c.resp.Mode {
	case Buffered:
		c.resp.Buffer = append(c.resp.Buffer, b...)
		return len(b), nil
	case Chunked:
		if err := c.emitHeaderIfNeeded(); err != nil {
			return 0, err
		}
		return len(b), c.writeChunk(b)
	case Fixed:
		if err := c.emitHeaderIfNeeded(); err != nil {
			return 0, err
		}
		if err := c.ep.WriteAll(b); err != nil {
			return 0, err
		}
		return len(b), nil
	default:
		if _, ok := c.resp.Headers["content-length"]; ok {
			c.resp.Mode = Fixed
			return c.Write(b)
		}
		return 0, errors.New("conn: write requires buffered, chunked, or a content-length header")
	}
}

// Flush finalises output: for Buffered mode it emits headers (with a
// computed content-length) followed by the accumulated body; for
// Chunked mode it emits the terminating zero-size chunk.
func (c *Connection) Flush() error {
	switch c.resp.Mode {
	case Buffered:
		if !c.resp.HeaderSent {
			c.resp.Headers["content-length"] = strconv.Itoa(len(c.resp.Buffer))
			if err := c.emitHeaderIfNeeded(); err != nil {
				return err
			}
		}
		if err := c.ep.WriteAll(c.resp.Buffer); err != nil {
			return err
		}
	case Chunked:
		if err := c.emitHeaderIfNeeded(); err != nil {
			return err
		}
		if err := c.ep.WriteAll([]byte("0\r\n\r\n")); err != nil {
			return err
		}
	default:
		if err := c.emitHeaderIfNeeded(); err != nil {
			return err
		}
	}
	c.state = BodyEmitted
	return c.ep.Flush()
}

// SendFile streams a byte range of a file as the response body.
func (c *Connection) SendFile(path string, from, to int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if to <= 0 || to > info.Size() {
		to = info.Size()
	}
	if from < 0 {
		from = 0
	}
	if from > 0 {
		if _, err := f.Seek(from, io.SeekStart); err != nil {
			return err
		}
	}
	length := to - from
	c.resp.Headers["content-length"] = strconv.FormatInt(length, 10)
	c.resp.Mode = Fixed
	if err := c.emitHeaderIfNeeded(); err != nil {
		return err
	}
	_, err = io.CopyN(wireWriter{c.ep}, f, length)
	return err
}

type wireWriter struct{ ep wire.Endpoint }

func (w wireWriter) Write(b []byte) (int, error) {
	if err := w.ep.WriteAll(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *Connection) writeChunk(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := c.ep.WriteAll([]byte(fmt.Sprintf("%x\r\n", len(b)))); err != nil {
		return err
	}
	if err := c.ep.WriteAll(b); err != nil {
		return err
	}
	return c.ep.WriteAll([]byte("\r\n"))
}

func (c *Connection) emitHeaderIfNeeded() error {
	if c.resp.HeaderSent {
		return nil
	}
	if c.resp.Mode == Chunked {
		c.resp.Headers["transfer-encoding"] = "chunked"
	}
	var out []byte
	out = append(out, fmt.Sprintf("HTTP/1.1 %d %s\r\n", c.resp.StatusCode, c.resp.StatusPhrase)...)
	for k, v := range c.resp.Headers {
		out = append(out, fmt.Sprintf("%s: %s\r\n", k, v)...)
	}
	for _, ck := range c.resp.Cookies {
		out = append(out, "Set-Cookie: "+ck.String()+"\r\n"...)
	}
	out = append(out, "Connection: "+c.connectionHeaderValue()+"\r\n"...)
	out = append(out, "\r\n"...)
	if err := c.ep.WriteAll(out); err != nil {
		return err
	}
	c.resp.HeaderSent = true
	c.state = HeadersEmitted
	return nil
}

func (c *Connection) connectionHeaderValue() string {
	if c.KeepAlive() {
		return "keep-alive"
	}
	return "close"
}

// RequestClose marks the connection to close after this response,
// overriding the default keep-alive policy (e.g. because the handler
// detected an unrecoverable condition).
func (c *Connection) RequestClose() { c.closeRequested = true }

// KeepAlive reports whether the connection should be kept open after
// this response, per the HTTP/1.1 default (keep-alive unless the client
// sent "Connection: close") combined with the configured idle window.
func (c *Connection) KeepAlive() bool {
	if c.closeRequested {
		return false
	}
	if v, ok := c.Request.Header("connection"); ok && strings.EqualFold(v, "close") {
		return false
	}
	return c.keepAliveWindow > 0
}

// Finish flushes any unflushed output, applies the keep-alive read
// deadline, runs teardown, and returns the Intent the worker reports to
// the accept loop.
func (c *Connection) Finish() Intent {
	if c.state != BodyEmitted && c.state != Aborted {
		if err := c.Flush(); err != nil {
			c.log.Debug("automatic flush during teardown failed", zap.Error(err))
			c.closeRequested = true
		}
	}
	if err := c.Teardown(); err != nil {
		c.log.Warn("connection teardown error", zap.Error(err))
	}
	if c.state != Aborted {
		c.state = Done
	}
	if !c.KeepAlive() {
		return FinishedClose
	}
	_ = c.ep.SetReadDeadline(time.Now().Add(c.keepAliveWindow))
	return FinishedKeepAlive
}

// Abort marks the connection unrecoverable; Finish still runs teardown.
func (c *Connection) Abort() {
	c.state = Aborted
	c.closeRequested = true
}

// Teardown unlinks every uploaded temp file exactly once. Errors are
// aggregated and logged, never raised to the handler (§3 invariant 2).
func (c *Connection) Teardown() error {
	var merr *multierror.Error
	for _, up := range c.Request.Uploads {
		if up.TempPath == "" {
			continue
		}
		if err := os.Remove(up.TempPath); err != nil && !os.IsNotExist(err) {
			merr = multierror.Append(merr, fmt.Errorf("unlink %s: %w", up.TempPath, err))
		}
	}
	return merr.ErrorOrNil()
}
