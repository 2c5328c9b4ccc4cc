// Package worker implements the fixed-size WorkerPool: each Worker owns
// one end of a control channel, receives a socket descriptor, parses
// and dispatches exactly one request, and reports back the connection's
// Intent (§4.6). A worker never blocks on anything but its control
// channel and the assigned socket, mirroring the teacher's per-connection
// conn.serve loop generalized to a reusable pooled goroutine.
package worker

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/httpparse"
	"github.com/cserve/cserve/internal/script"
	"github.com/cserve/cserve/internal/wire"
)

// Item is a unit of work handed to a worker: the endpoint to read a
// request from and parse/IO limits.
type Item struct {
	Endpoint        wire.Endpoint
	MaxPostSize     int64
	TempDir         string
	KeepAliveWindow time.Duration
}

// Result is what a worker reports back after handling (or failing to
// handle) one request.
type Result struct {
	Worker   *Worker
	Endpoint wire.Endpoint
	Intent   conn.Intent
	Err      error
}

// InitScript is the --initscript chunk run before every request's own
// handler, sharing the request's Bridge and marshalling layer (§6).
type InitScript struct {
	Source string
	Origin string
}

// Worker is one pooled goroutine processing at most one request at a
// time.
type Worker struct {
	id         int
	work       chan Item
	report     chan<- Result
	dispatcher *dispatch.Dispatcher
	scriptDeps script.Deps
	initScript *InitScript
	log        *zap.Logger
	quit       chan struct{}
}

// New constructs a Worker; Run must be called to start its loop.
func New(id int, report chan<- Result, dispatcher *dispatch.Dispatcher, scriptDeps script.Deps, initScript *InitScript, log *zap.Logger) *Worker {
	return &Worker{
		id:         id,
		work:       make(chan Item, 1),
		report:     report,
		dispatcher: dispatcher,
		scriptDeps: scriptDeps,
		initScript: initScript,
		log:        log,
		quit:       make(chan struct{}),
	}
}

// Send assigns a unit of work to this worker. The caller (AcceptLoop)
// must only call Send when it has observed this worker as idle.
func (w *Worker) Send(item Item) { w.work <- item }

// Exit asks the worker's loop to return after its current item, if any.
func (w *Worker) Exit() { close(w.quit) }

// Run is the worker's loop: wait on the control channel for work,
// process one request, report the outcome, repeat.
func (w *Worker) Run() {
	for {
		select {
		case <-w.quit:
			return
		case item := <-w.work:
			result := w.process(item)
			w.report <- result
		}
	}
}

func (w *Worker) process(item Item) Result {
	req, err := httpparse.ParseRequest(item.Endpoint, httpparse.Options{
		MaxPostSize: item.MaxPostSize,
		TempDir:     item.TempDir,
	})
	if err != nil {
		return w.failClosed(item, err)
	}
	req.PeerIP = item.Endpoint.PeerIP()
	req.PeerPort = item.Endpoint.PeerPort()
	req.Secure = item.Endpoint.Secure()

	c := conn.New(item.Endpoint, req, item.KeepAliveWindow, w.log)
	route, ok := w.dispatcher.Lookup(req.Method, req.Path)
	var handler dispatch.Handler
	if ok {
		handler = route.Handler
	} else {
		handler = w.dispatcher.Default
	}

	bridge := script.New(c, w.scriptDeps)
	if w.initScript != nil {
		if err := bridge.ExecuteChunk(w.initScript.Source, w.initScript.Origin); err != nil {
			w.log.Warn("initscript failed", zap.Error(err))
		}
	}
	if err := handler.Handle(c, bridge, route); err != nil {
		w.log.Warn("handler error", zap.String("handler", handler.Name()), zap.Error(err))
		c.RequestClose()
		// §7 HandlerError: if headers haven't gone out yet, emit a
		// best-effort 500 carrying the error text; otherwise the
		// response is already committed and all we can do is close.
		if sErr := c.SetStatus(http.StatusInternalServerError, ""); sErr == nil {
			_ = c.SetBuffered(0, 0)
			_, _ = c.Write([]byte(err.Error()))
		}
	}
	intent := c.Finish()
	return Result{Worker: w, Endpoint: item.Endpoint, Intent: intent}
}

// statusForParseError maps a ProtocolError (§7) to the 4xx status it
// should surface, since httpparse's sentinel errors distinguish oversize
// URIs/headers/bodies from plain syntax errors.
func statusForParseError(err error) int {
	switch {
	case errors.Is(err, httpparse.ErrRequestURITooLong):
		return http.StatusRequestURITooLong
	case errors.Is(err, httpparse.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, httpparse.ErrLineTooLong):
		return http.StatusRequestHeaderFieldsTooLarge
	default:
		return http.StatusBadRequest
	}
}

func (w *Worker) failClosed(item Item, err error) Result {
	w.log.Debug("request parse failed", zap.Int("worker", w.id), zap.Error(err))
	code := statusForParseError(err)
	resp := fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", code, http.StatusText(code))
	_ = item.Endpoint.WriteAll([]byte(resp))
	return Result{Worker: w, Endpoint: item.Endpoint, Intent: conn.FinishedClose, Err: err}
}
