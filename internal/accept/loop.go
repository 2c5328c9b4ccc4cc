package accept

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/wire"
	"github.com/cserve/cserve/internal/worker"
)

// acceptedConn is a brand-new client socket handed off by a listener's
// Accept goroutine.
type acceptedConn struct {
	desc *SocketDescriptor
}

// readyEvent reports that a dynamic socket already in the poll set has
// become readable, or has hung up / errored.
type readyEvent struct {
	desc *SocketDescriptor
	err  error
}

// Listener pairs a net.Listener with the transport used to accept on
// it (nil transport means plain).
type Listener struct {
	NetListener net.Listener
	Secure      wire.SecureTransport
	Kind        Kind
}

// Loop is the accept loop: it owns the poll set (the registered dynamic
// sockets), the worker idle queue, and the waiting queue of sockets with
// no free worker, exclusively.
type Loop struct {
	listeners []Listener
	pool      *worker.Pool

	idle    []*worker.Worker
	waiting []*SocketDescriptor

	maxPostSize     int64
	tempDir         string
	keepAliveWindow time.Duration

	newConn chan acceptedConn
	ready   chan readyEvent
	stop    chan struct{}

	log *zap.Logger
}

// New builds a Loop over the given listeners and worker pool.
func New(listeners []Listener, pool *worker.Pool, maxPostSize int64, tempDir string, keepAliveWindow time.Duration, log *zap.Logger) *Loop {
	l := &Loop{
		listeners:       listeners,
		pool:            pool,
		idle:            append([]*worker.Worker{}, pool.Workers...),
		maxPostSize:     maxPostSize,
		tempDir:         tempDir,
		keepAliveWindow: keepAliveWindow,
		newConn:         make(chan acceptedConn, 16),
		ready:           make(chan readyEvent, 16),
		stop:            make(chan struct{}),
		log:             log,
	}
	return l
}

// Run starts one accept goroutine per listener, a signal-handling
// goroutine converting SIGINT/SIGTERM into a stop request, and then
// runs the loop body until stopped. SIGPIPE needs no handling: the Go
// runtime already installs its own handler before net ever writes to a
// socket, so a write to a closed peer surfaces as an error return, not
// a process signal (§5 design note).
func (l *Loop) Run() {
	for i := range l.listeners {
		go l.acceptOn(l.listeners[i])
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(l.stop)
	}()

	l.run()
}

func (l *Loop) acceptOn(ln Listener) {
	for {
		raw, err := ln.NetListener.Accept()
		if err != nil {
			select {
			case <-l.stop:
				return
			default:
			}
			l.log.Warn("accept failed, continuing", zap.Error(err))
			continue
		}
		endpoint, err := l.wrap(raw, ln)
		if err != nil {
			l.log.Warn("secure handshake failed", zap.Error(err))
			raw.Close()
			continue
		}
		l.newConn <- acceptedConn{desc: &SocketDescriptor{
			Kind:     KindDynamic,
			Endpoint: endpoint,
			PeerIP:   endpoint.PeerIP(),
			PeerPort: endpoint.PeerPort(),
		}}
	}
}

func (l *Loop) wrap(raw net.Conn, ln Listener) (wire.Endpoint, error) {
	if ln.Secure == nil {
		return wire.NewPlain(raw), nil
	}
	tlsConn, err := ln.Secure.HandshakeAccept(context.Background(), raw)
	if err != nil {
		return nil, err
	}
	return wire.NewSecure(tlsConn), nil
}

// watch spawns the readability-probe goroutine for a dynamic socket
// re-added to the poll set after a keep-alive response.
func (l *Loop) watch(desc *SocketDescriptor) {
	go func() {
		buf := make([]byte, 1)
		n, err := desc.Endpoint.ReadSome(buf)
		if err != nil {
			l.ready <- readyEvent{desc: desc, err: err}
			return
		}
		if n > 0 {
			_ = desc.Endpoint.PutBack(buf[:n])
		}
		l.ready <- readyEvent{desc: desc}
	}()
}

func (l *Loop) run() {
	for {
		select {
		case <-l.stop:
			l.shutdown()
			return

		case ac := <-l.newConn:
			l.handleNewSocket(ac.desc)

		case ev := <-l.ready:
			l.handleReady(ev)

		case res := <-l.pool.Report:
			l.handleWorkerResult(res)
		}
	}
}

func (l *Loop) handleNewSocket(desc *SocketDescriptor) {
	if w, ok := l.popIdle(); ok {
		l.dispatchTo(w, desc)
		return
	}
	l.waiting = append(l.waiting, desc)
}

func (l *Loop) handleReady(ev readyEvent) {
	if ev.err != nil {
		ev.desc.Endpoint.Shutdown()
		return
	}
	if w, ok := l.popIdle(); ok {
		l.dispatchTo(w, ev.desc)
		return
	}
	l.waiting = append(l.waiting, ev.desc)
}

func (l *Loop) handleWorkerResult(res worker.Result) {
	if res.Intent == conn.FinishedClose || res.Err != nil {
		res.Endpoint.Shutdown()
		l.returnWorker(res.Worker)
		return
	}

	desc := &SocketDescriptor{Kind: KindDynamic, Endpoint: res.Endpoint}
	if len(l.waiting) > 0 {
		next := l.waiting[0]
		l.waiting = l.waiting[1:]
		l.dispatchTo(res.Worker, next)
		l.watch(desc)
		return
	}
	l.watch(desc)
	l.returnWorker(res.Worker)
}

func (l *Loop) dispatchTo(w *worker.Worker, desc *SocketDescriptor) {
	w.Send(worker.Item{
		Endpoint:        desc.Endpoint,
		MaxPostSize:     l.maxPostSize,
		TempDir:         l.tempDir,
		KeepAliveWindow: l.keepAliveWindow,
	})
}

func (l *Loop) popIdle() (*worker.Worker, bool) {
	if len(l.idle) == 0 {
		return nil, false
	}
	w := l.idle[0]
	l.idle = l.idle[1:]
	return w, true
}

func (l *Loop) returnWorker(w *worker.Worker) { l.idle = append(l.idle, w) }

func (l *Loop) shutdown() {
	l.pool.Stop()
	for _, ln := range l.listeners {
		ln.NetListener.Close()
	}
	for _, desc := range l.waiting {
		desc.Endpoint.Shutdown()
	}
}
