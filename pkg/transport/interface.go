package transport

import "net"

// ConnHandler serves one accepted stream connection. The transport closes
// conn after the handler returns.
type ConnHandler func(conn net.Conn) error

// PacketHandler handles one inbound datagram. payload is owned by the handler.
type PacketHandler func(payload []byte, from net.Addr)

// Transport is a listening endpoint of either the chunk or control channel.
type Transport interface {
	ListenAndAccept() error
	Close() error
	Addr() string
}
