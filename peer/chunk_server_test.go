package peer

import (
	"context"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"tarun-kavipurapu/p2p-share/pkg/monitor"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport/tcp"
)

func startChunkServer(t *testing.T, store *Store) (*ChunkServer, *monitor.Metrics) {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	m := monitor.New()
	cs := NewChunkServer("", store, m)
	if err := cs.Serve(ln); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs, m
}

func request(t *testing.T, addr, req string) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := tcp.Request(ctx, addr, []byte(req), protocol.ChunkSize)
	if err != nil {
		t.Fatalf("request %q: %v", req, err)
	}
	return reply
}

func TestChunkServerServesChunks(t *testing.T) {
	store := NewStore()
	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i)
	}
	store.Put("a.bin", SplitChunks(data))
	cs, m := startChunkServer(t, store)

	first := request(t, cs.Addr(), "a.bin,0")
	if len(first) != 1024 || first[1] != 1 {
		t.Fatalf("chunk 0: %d bytes", len(first))
	}
	last := request(t, cs.Addr(), "a.bin,4")
	if len(last) != 904 {
		t.Fatalf("chunk 4: %d bytes, want 904", len(last))
	}

	if s := m.Snapshot(); s.ChunksServed != 2 || s.BytesServed != 1928 {
		t.Fatalf("metrics = %+v", s)
	}
}

func TestChunkServerDropsBadRequests(t *testing.T) {
	store := NewStore()
	store.Put("a.bin", SplitChunks(make([]byte, 10)))
	cs, _ := startChunkServer(t, store)

	for _, req := range []string{"a.bin,1", "b.bin,0", "garbage"} {
		if reply := request(t, cs.Addr(), req); len(reply) != 0 {
			t.Errorf("%q: got %d bytes, want connection closed without reply", req, len(reply))
		}
	}

	if reply := request(t, cs.Addr(), "a.bin,0"); len(reply) != 10 {
		t.Fatalf("server stopped serving after faults: %d bytes", len(reply))
	}
}
