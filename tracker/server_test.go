package tracker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport/udp"
)

func startServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	conn, err := nettest.NewLocalPacketListener("udp")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := NewServer(DefaultConfig(), opts...)
	if err := s.Serve(conn); err != nil {
		t.Fatalf("serve: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func exchange(t *testing.T, addr string, msg protocol.ControlMessage) ([]byte, error) {
	t.Helper()
	b, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return udp.Exchange(ctx, addr, b)
}

func TestServerShareThenGet(t *testing.T) {
	s := startServer(t)

	reply, err := exchange(t, s.Addr(), protocol.NewShare("a.bin", "A", "127.0.0.1:52611", 5))
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if string(reply) != protocol.ReplyOK {
		t.Fatalf("share reply = %q", reply)
	}

	reply, err = exchange(t, s.Addr(), protocol.NewGet("a.bin", "B", "127.0.0.1:52612"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var resp protocol.GetResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("get reply %q: %v", reply, err)
	}
	if resp.NumChunks != 5 || len(resp.Peers) != 1 || resp.Peers[0] != "127.0.0.1:52611" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestServerGetUnknownFile(t *testing.T) {
	s := startServer(t)

	reply, err := exchange(t, s.Addr(), protocol.NewGet("nope.txt", "B", "b"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(reply) != protocol.ReplyNotFound {
		t.Fatalf("reply = %q, want %q", reply, protocol.ReplyNotFound)
	}
}

func TestServerAliveHasNoReply(t *testing.T) {
	s := startServer(t)

	if _, err := exchange(t, s.Addr(), protocol.NewAlive("A")); err == nil {
		t.Fatal("alive must not be answered")
	}
	entries := s.RequestLog().Entries()
	if len(entries) != 1 || entries[0].Command != protocol.CommandAlive || entries[0].PeerID != "A" {
		t.Fatalf("unexpected log %+v", entries)
	}
}

func TestServerIgnoresUnknownCommandAndGarbage(t *testing.T) {
	s := startServer(t)

	if _, err := exchange(t, s.Addr(), protocol.ControlMessage{Command: "delete", Filename: "a"}); err == nil {
		t.Fatal("unknown command must not be answered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := udp.Exchange(ctx, s.Addr(), []byte("{not json")); err == nil {
		t.Fatal("malformed datagram must not be answered")
	}

	if n := len(s.RequestLog().Entries()); n != 0 {
		t.Fatalf("request log has %d entries, want 0", n)
	}
}

func TestServerEvictsOnGet(t *testing.T) {
	clock := newFakeClock()
	s := startServer(t, WithClock(clock.Now))

	if _, err := exchange(t, s.Addr(), protocol.NewShare("a.bin", "A", "a", 5)); err != nil {
		t.Fatal(err)
	}
	if _, err := exchange(t, s.Addr(), protocol.NewAlive("A")); err == nil {
		t.Fatal("alive must not be answered")
	}

	clock.Advance(31 * time.Second)

	reply, err := exchange(t, s.Addr(), protocol.NewGet("a.bin", "B", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if string(reply) != protocol.ReplyNotFound {
		t.Fatalf("reply = %q, want not found", reply)
	}
}

func TestServerStatus(t *testing.T) {
	s := startServer(t)
	s.Share("a.bin", "A", "a", 5)

	status := s.GetStatus()
	for _, want := range []string{"Registered Files: 1", "a.bin", "Chunks: 5"} {
		if !strings.Contains(status, want) {
			t.Errorf("status missing %q:\n%s", want, status)
		}
	}
}
