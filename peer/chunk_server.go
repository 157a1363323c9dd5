package peer

import (
	"fmt"
	"net"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/monitor"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport/tcp"
)

// ChunkServer answers one chunk request per inbound TCP connection.
type ChunkServer struct {
	store     *Store
	metrics   *monitor.Metrics
	Transport *tcp.TCPTransport
}

func NewChunkServer(addr string, store *Store, metrics *monitor.Metrics) *ChunkServer {
	trans := tcp.NewTCPTransport(addr)
	cs := &ChunkServer{
		store:     store,
		metrics:   metrics,
		Transport: trans,
	}
	trans.SetHandler(cs.handleConn)
	return cs
}

func (cs *ChunkServer) Listen() error {
	return cs.Transport.ListenAndAccept()
}

// Serve uses an already bound listener.
func (cs *ChunkServer) Serve(ln net.Listener) error {
	return cs.Transport.Serve(ln)
}

func (cs *ChunkServer) Addr() string {
	return cs.Transport.Addr()
}

func (cs *ChunkServer) Close() error {
	return cs.Transport.Close()
}

// handleConn reads a single request in one read, as the request is one short
// line. Any failure returns an error and the transport closes the connection
// without a reply.
func (cs *ChunkServer) handleConn(conn net.Conn) error {
	buf := make([]byte, protocol.MaxDatagramSize)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	req, err := protocol.ParseChunkRequest(buf[:n])
	if err != nil {
		return err
	}

	chunk, err := cs.HandleChunkRequest(req.Filename, req.ChunkID)
	if err != nil {
		return err
	}

	if _, err := conn.Write(chunk); err != nil {
		return fmt.Errorf("write chunk %d of %s: %w", req.ChunkID, req.Filename, err)
	}
	if cs.metrics != nil {
		cs.metrics.RecordServed(len(chunk))
	}
	logger.Sugar.Debugf("[ChunkServer] sent chunk %d of %s (%d bytes) to %s", req.ChunkID, req.Filename, len(chunk), conn.RemoteAddr())
	return nil
}

// HandleChunkRequest looks the chunk up; the store lock is released before
// any network I/O happens.
func (cs *ChunkServer) HandleChunkRequest(filename string, chunkID int) ([]byte, error) {
	return cs.store.Chunk(filename, chunkID)
}
