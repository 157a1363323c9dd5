package udp

import (
	"context"
	"net"
	"testing"
	"time"

	"golang.org/x/net/nettest"
)

func newEchoTransport(t *testing.T, reply bool) *UDPTransport {
	t.Helper()
	conn, err := nettest.NewLocalPacketListener("udp")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	tr := NewUDPTransport(conn.LocalAddr().String())
	tr.SetHandler(func(payload []byte, from net.Addr) {
		if reply {
			_ = tr.WriteTo(append([]byte("echo:"), payload...), from)
		}
	})
	if err := tr.Serve(conn); err != nil {
		t.Fatalf("serve: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestExchange(t *testing.T) {
	tr := newEchoTransport(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := Exchange(ctx, tr.Addr(), []byte("ping"))
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if string(got) != "echo:ping" {
		t.Fatalf("got %q", got)
	}
}

func TestExchangeTimesOutWithoutReply(t *testing.T) {
	tr := newEchoTransport(t, false)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := Exchange(ctx, tr.Addr(), []byte("ping")); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("Exchange did not honour the deadline")
	}
}

func TestSendDoesNotWait(t *testing.T) {
	got := make(chan string, 1)
	conn, err := nettest.NewLocalPacketListener("udp")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	tr := NewUDPTransport("")
	tr.SetHandler(func(payload []byte, from net.Addr) { got <- string(payload) })
	if err := tr.Serve(conn); err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	if err := Send(tr.Addr(), []byte("alive")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case s := <-got:
		if s != "alive" {
			t.Fatalf("got %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("datagram never arrived")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	tr := newEchoTransport(t, false)
	if err := tr.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
