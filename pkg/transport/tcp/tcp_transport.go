package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/transport"
)

// TCPTransport implements transport.Transport for the peer-to-peer chunk
// channel: every accepted connection is served on its own goroutine.
type TCPTransport struct {
	listenAddr string
	listener   net.Listener
	handler    transport.ConnHandler

	quitCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ transport.Transport = (*TCPTransport)(nil)

func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{
		listenAddr: addr,
		quitCh:     make(chan struct{}),
	}
}

func (t *TCPTransport) SetHandler(h transport.ConnHandler) {
	t.handler = h
}

func (t *TCPTransport) ListenAndAccept() error {
	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return err
	}
	return t.Serve(ln)
}

// Serve starts accepting on an already bound listener.
func (t *TCPTransport) Serve(ln net.Listener) error {
	if t.handler == nil {
		return errors.New("tcp transport: no handler set")
	}
	t.listener = ln
	t.listenAddr = ln.Addr().String()

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

func (t *TCPTransport) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.quitCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Sugar.Errorf("[TCPTransport] accept error: listen=%s err=%v", t.listenAddr, err)
			continue
		}
		go t.handleConn(conn)
	}
}

func (t *TCPTransport) handleConn(conn net.Conn) {
	defer conn.Close()

	if err := t.handler(conn); err != nil {
		logger.Sugar.Warnf("[TCPTransport] connection dropped: remote=%s err=%v", conn.RemoteAddr(), err)
	}
}

func (t *TCPTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.quitCh)
		if t.listener != nil {
			err = t.listener.Close()
		}
		t.wg.Wait()
	})
	return err
}

// Addr returns the bound address once listening, the configured one before.
func (t *TCPTransport) Addr() string {
	return t.listenAddr
}

// Request opens a fresh connection to addr, writes req, half-closes the
// write side and reads the whole reply until the server closes, capped at
// maxReply bytes. The context bounds dial and read.
func Request(ctx context.Context, addr string, req []byte, maxReply int64) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if _, err := conn.Write(req); err != nil {
		return nil, fmt.Errorf("write request to %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}

	reply, err := io.ReadAll(io.LimitReader(conn, maxReply))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read reply from %s: %w", addr, err)
	}
	return reply, nil
}
