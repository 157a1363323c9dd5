package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport"
)

// UDPTransport implements transport.Transport for the tracker control
// channel. A single goroutine reads datagrams and hands each one to the
// handler on its own goroutine; replies go out on the same socket.
type UDPTransport struct {
	listenAddr string
	conn       net.PacketConn
	handler    transport.PacketHandler

	quitCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ transport.Transport = (*UDPTransport)(nil)

func NewUDPTransport(addr string) *UDPTransport {
	return &UDPTransport{
		listenAddr: addr,
		quitCh:     make(chan struct{}),
	}
}

func (t *UDPTransport) SetHandler(h transport.PacketHandler) {
	t.handler = h
}

func (t *UDPTransport) ListenAndAccept() error {
	conn, err := net.ListenPacket("udp", t.listenAddr)
	if err != nil {
		return err
	}
	return t.Serve(conn)
}

// Serve starts reading from an already bound packet connection.
func (t *UDPTransport) Serve(conn net.PacketConn) error {
	if t.handler == nil {
		return errors.New("udp transport: no handler set")
	}
	t.conn = conn
	t.listenAddr = conn.LocalAddr().String()

	t.wg.Add(1)
	go t.readLoop()
	return nil
}

func (t *UDPTransport) readLoop() {
	defer t.wg.Done()
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, from, err := t.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-t.quitCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Sugar.Errorf("[UDPTransport] read error: listen=%s err=%v", t.listenAddr, err)
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		go t.handler(payload, from)
	}
}

// WriteTo sends one reply datagram on the listening socket.
func (t *UDPTransport) WriteTo(b []byte, to net.Addr) error {
	_, err := t.conn.WriteTo(b, to)
	return err
}

func (t *UDPTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.quitCh)
		if t.conn != nil {
			err = t.conn.Close()
		}
		t.wg.Wait()
	})
	return err
}

func (t *UDPTransport) Addr() string {
	return t.listenAddr
}

// Send writes one datagram to addr from a throwaway socket and returns
// without waiting for any answer.
func Send(addr string, payload []byte) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}

// Exchange sends one datagram and blocks for exactly one reply. Without a
// deadline or cancellation on ctx a lost datagram blocks forever.
func Exchange(ctx context.Context, addr string, payload []byte) ([]byte, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("send to %s: %w", addr, err)
	}

	buf := make([]byte, protocol.MaxDatagramSize)
	n, err := conn.Read(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("await reply from %s: %w", addr, err)
	}
	return buf[:n], nil
}
