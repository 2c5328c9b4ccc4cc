// Package accept implements AcceptLoop: the single goroutine that owns
// the poll set, accepts new sockets on the plain and secure listeners,
// and hands them to the WorkerPool or a waiting queue (§4.5).
//
// Go has no portable, cheap way to multiplex an arbitrary and growing
// set of net.Conn readiness events the way the original's poll(2) loop
// does directly on file descriptors. The substitute kept here preserves
// the specified invariant instead of the specified mechanism: one
// lightweight goroutine per registered dynamic socket blocks on a
// readability probe and reports back over a channel that only the
// accept loop goroutine ever receives from, so the registration table,
// idle queue, and waiting queue remain mutated by exactly one goroutine,
// as required.
package accept

import "github.com/cserve/cserve/internal/wire"

// Kind is a poll-set entry's role. Only the listener and dynamic-socket
// roles exist as values; worker control channels and the stop signal
// are Go channels held by Loop, not descriptors.
type Kind int

const (
	KindListen Kind = iota
	KindSecureListen
	KindDynamic
)

// SocketDescriptor is a poll-set entry: an endpoint plus the peer
// metadata the specification requires travel alongside it.
type SocketDescriptor struct {
	Kind     Kind
	Endpoint wire.Endpoint
	PeerIP   string
	PeerPort int
}
