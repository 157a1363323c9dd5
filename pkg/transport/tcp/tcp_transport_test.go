package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"golang.org/x/net/nettest"
)

func startTransport(t *testing.T, h func(net.Conn) error) *TCPTransport {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	tr := NewTCPTransport("")
	tr.SetHandler(h)
	if err := tr.Serve(ln); err != nil {
		t.Fatalf("serve: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestRequestRoundTrip(t *testing.T) {
	tr := startTransport(t, func(conn net.Conn) error {
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		_, err = conn.Write(append([]byte("re:"), buf[:n]...))
		return err
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := Request(ctx, tr.Addr(), []byte("hello"), 1024)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(got) != "re:hello" {
		t.Fatalf("got %q", got)
	}
}

func TestRequestHandlerErrorClosesWithoutReply(t *testing.T) {
	tr := startTransport(t, func(conn net.Conn) error {
		_, _ = io.ReadAll(io.LimitReader(conn, 5))
		return errors.New("nothing to serve")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := Request(ctx, tr.Addr(), []byte("hello"), 1024)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty reply, got %q", got)
	}
}

func TestRequestReplyIsCapped(t *testing.T) {
	tr := startTransport(t, func(conn net.Conn) error {
		_, err := conn.Write(make([]byte, 4096))
		return err
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := Request(ctx, tr.Addr(), []byte("x"), 1024)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(got) != 1024 {
		t.Fatalf("len = %d, want 1024", len(got))
	}
}

func TestRequestDialFailure(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Request(ctx, addr, []byte("x"), 1024); err == nil {
		t.Fatal("expected dial error")
	}
}
