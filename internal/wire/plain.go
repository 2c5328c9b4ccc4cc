package wire

import "net"

// PlainEndpoint is an Endpoint over an unencrypted net.Conn.
type PlainEndpoint struct {
	*endpoint
}

// NewPlain wraps an accepted TCP connection.
func NewPlain(conn net.Conn) *PlainEndpoint {
	host, port := splitHostPort(conn.RemoteAddr())
	return &PlainEndpoint{endpoint: newEndpoint(conn, false, host, port)}
}
