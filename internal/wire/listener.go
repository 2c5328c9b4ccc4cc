package wire

import (
	"net"
	"time"
)

// KeepAliveListener wraps a *net.TCPListener and enables TCP keep-alives
// on every accepted connection, the same way a plain net/http server does.
type KeepAliveListener struct {
	*net.TCPListener
	period time.Duration
}

func NewKeepAliveListener(l *net.TCPListener, period time.Duration) *KeepAliveListener {
	if period <= 0 {
		period = 3 * time.Minute
	}
	return &KeepAliveListener{TCPListener: l, period: period}
}

func (l *KeepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = conn.SetKeepAlive(true)
	_ = conn.SetKeepAlivePeriod(l.period)
	return conn, nil
}

// ListenKeepAlive opens a TCP listener on addr wrapped in a
// KeepAliveListener, the constructor cmd/cserved's listener setup calls
// for both the plain and secure ports.
func ListenKeepAlive(addr string, period time.Duration) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewKeepAliveListener(ln.(*net.TCPListener), period), nil
}
