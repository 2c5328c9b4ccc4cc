// Package wire provides the byte-level I/O endpoint abstraction used by
// every connection in the server: a uniform read/write/flush/shutdown
// surface over either a plain TCP socket or one wrapped in TLS.
package wire

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// ErrClosed is returned by operations on a shut-down endpoint.
var ErrClosed = errors.New("wire: endpoint closed")

const minPutBack = 32

// Endpoint hides whether the underlying socket is plain or secure.
type Endpoint interface {
	// ReadSome reads into buf and returns the number of bytes read.
	// It returns io.EOF when the peer has closed its write side.
	ReadSome(buf []byte) (int, error)

	// PutBack pushes up to minPutBack bytes back onto the stream so a
	// subsequent ReadSome observes them again. Used by the accept loop's
	// one-byte readability probe to return the probed byte.
	PutBack(b []byte) error

	// WriteAll writes the whole of b, coalescing short writes.
	WriteAll(b []byte) error

	// Flush pushes any buffered output to the peer.
	Flush() error

	// SetReadDeadline sets the deadline for the next ReadSome call.
	SetReadDeadline(t time.Time) error

	// Shutdown closes the endpoint. Idempotent.
	Shutdown() error

	PeerIP() string
	PeerPort() int
	Secure() bool
}

// endpoint is the shared implementation for plain and secure transports;
// the only thing that differs between them is the net.Conn each wraps
// (a *tls.Conn satisfies net.Conn, so one struct serves both).
type endpoint struct {
	raw      net.Conn
	secure   bool
	peerIP   string
	peerPort int

	br *bufio.Reader
	bw *bufio.Writer

	putback []byte
	closed  bool
}

func newEndpoint(raw net.Conn, secure bool, peerIP string, peerPort int) *endpoint {
	return &endpoint{
		raw:      raw,
		secure:   secure,
		peerIP:   peerIP,
		peerPort: peerPort,
		br:       bufio.NewReaderSize(raw, 4096),
		bw:       bufio.NewWriterSize(raw, 4096),
	}
}

func (e *endpoint) ReadSome(buf []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if len(e.putback) > 0 {
		n := copy(buf, e.putback)
		e.putback = e.putback[n:]
		return n, nil
	}
	n, err := e.br.Read(buf)
	if err != nil && err != io.EOF {
		return n, &TransportError{Op: "read", Err: err}
	}
	return n, err
}

func (e *endpoint) PutBack(b []byte) error {
	if len(b) > minPutBack {
		return errors.New("wire: put-back exceeds guaranteed window")
	}
	e.putback = append(append([]byte(nil), b...), e.putback...)
	return nil
}

func (e *endpoint) WriteAll(b []byte) error {
	if e.closed {
		return ErrClosed
	}
	for len(b) > 0 {
		n, err := e.bw.Write(b)
		if err != nil {
			return &TransportError{Op: "write", Err: err}
		}
		b = b[n:]
	}
	return nil
}

func (e *endpoint) Flush() error {
	if e.closed {
		return ErrClosed
	}
	if err := e.bw.Flush(); err != nil {
		return &TransportError{Op: "flush", Err: err}
	}
	return nil
}

func (e *endpoint) SetReadDeadline(t time.Time) error {
	return e.raw.SetReadDeadline(t)
}

func (e *endpoint) Shutdown() error {
	if e.closed {
		return nil
	}
	e.closed = true
	_ = e.bw.Flush()
	return e.raw.Close()
}

func (e *endpoint) PeerIP() string { return e.peerIP }
func (e *endpoint) PeerPort() int  { return e.peerPort }
func (e *endpoint) Secure() bool   { return e.secure }

// TransportError wraps a low-level I/O error encountered on an Endpoint.
type TransportError struct {
	Op  string
	Err error
}

func (t *TransportError) Error() string { return "wire: " + t.Op + ": " + t.Err.Error() }
func (t *TransportError) Unwrap() error { return t.Err }
