package wire

import (
	"context"
	"crypto/tls"
	"net"
)

// SecureTransport is the opaque TLS capability the accept loop uses to
// turn a freshly-accepted socket into an encrypted endpoint. It is
// satisfied by TLSTransport, which wraps a *tls.Config (crypto/tls is
// treated as the black-box
// "SecureTransport" collaborator named in the specification).
type SecureTransport interface {
	HandshakeAccept(ctx context.Context, raw net.Conn) (net.Conn, error)
}

// TLSTransport adapts a *tls.Config to SecureTransport.
type TLSTransport struct {
	Config *tls.Config
}

func NewTLSTransport(certFile, keyFile string) (*TLSTransport, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &TLSTransport{Config: &tls.Config{Certificates: []tls.Certificate{cert}}}, nil
}

func (t *TLSTransport) HandshakeAccept(ctx context.Context, raw net.Conn) (net.Conn, error) {
	tlsConn := tls.Server(raw, t.Config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

// SecureEndpoint is an Endpoint over a handshaken TLS connection.
type SecureEndpoint struct {
	*endpoint
}

func NewSecure(conn net.Conn) *SecureEndpoint {
	host, port := splitHostPort(conn.RemoteAddr())
	return &SecureEndpoint{endpoint: newEndpoint(conn, true, host, port)}
}
