package wire

import (
	"net"
	"strconv"
)

func splitHostPort(addr net.Addr) (string, int) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if ok {
		return tcpAddr.IP.String(), tcpAddr.Port
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
