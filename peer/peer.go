package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/monitor"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
)

type Config struct {
	PeerID      string
	TrackerAddr string
	ListenAddr  string
	// AdvertiseHost is the host part of the address given to the tracker.
	AdvertiseHost     string
	HeartbeatInterval time.Duration
	// RequestTimeout bounds each tracker get and each chunk fetch. Zero
	// waits forever.
	RequestTimeout time.Duration
	DownloadDir    string
}

func DefaultConfig() Config {
	return Config{
		TrackerAddr:       protocol.DefaultTrackerAddr,
		ListenAddr:        net.JoinHostPort("127.0.0.1", strconv.Itoa(protocol.DefaultListenPort)),
		AdvertiseHost:     "127.0.0.1",
		HeartbeatInterval: DefaultHeartbeatInterval,
		RequestTimeout:    10 * time.Second,
		DownloadDir:       ".",
	}
}

// PeerServer is one peer process: it serves its chunks, keeps itself alive
// at the tracker and downloads on request.
type PeerServer struct {
	cfg         Config
	store       *Store
	chunkServer *ChunkServer
	client      *ControlClient
	downloader  *Downloader
	metrics     *monitor.Metrics
	peerAddr    string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var ErrNotStarted = errors.New("peer not started")

func NewPeerServer(cfg Config) *PeerServer {
	if cfg.PeerID == "" {
		cfg.PeerID = uuid.NewString()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}

	store := NewStore()
	metrics := monitor.New()
	p := &PeerServer{
		cfg:         cfg,
		store:       store,
		metrics:     metrics,
		chunkServer: NewChunkServer(cfg.ListenAddr, store, metrics),
	}

	logger.Sugar.Infof("[PeerServer] Initialized peer %s with address: %s", cfg.PeerID, cfg.ListenAddr)
	return p
}

// Start listens for chunk requests and begins heartbeating.
func (p *PeerServer) Start() error {
	logger.Sugar.Infof("[PeerServer] Starting peer server on address: %s", p.cfg.ListenAddr)

	if err := p.chunkServer.Listen(); err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}

	_, port, err := net.SplitHostPort(p.chunkServer.Addr())
	if err != nil {
		return multierr.Append(fmt.Errorf("parse listen address: %w", err), p.chunkServer.Close())
	}
	host := p.cfg.AdvertiseHost
	if host == "" {
		host = "127.0.0.1"
	}
	p.peerAddr = net.JoinHostPort(host, port)

	p.client = NewControlClient(p.cfg.TrackerAddr, p.cfg.PeerID, p.peerAddr)
	p.downloader = NewDownloader(p.client, p.cfg.DownloadDir, p.cfg.RequestTimeout, p.metrics)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		runHeartbeat(ctx, p.client, p.cfg.HeartbeatInterval)
	}()

	logger.Sugar.Infof("[PeerServer] Peer %s listening on %s, tracker %s", p.cfg.PeerID, p.peerAddr, p.cfg.TrackerAddr)
	return nil
}

// Share loads path into memory and announces it to the tracker.
func (p *PeerServer) Share(path string) error {
	if p.client == nil {
		return ErrNotStarted
	}
	logger.Sugar.Infof("[PeerServer] Sharing file: %s", path)

	name, numChunks, err := p.store.LoadFile(path)
	if err != nil {
		return err
	}
	if err := p.client.SendShare(name, numChunks); err != nil {
		return fmt.Errorf("failed to announce %s: %w", name, err)
	}

	logger.Sugar.Infof("[PeerServer] Shared %s as %s with %d chunks", path, name, numChunks)
	return nil
}

// Get downloads filename and returns where it was written.
func (p *PeerServer) Get(ctx context.Context, filename string) (string, error) {
	if p.downloader == nil {
		return "", ErrNotStarted
	}
	return p.downloader.Get(ctx, filename)
}

// SetProgressOutput makes downloads draw a progress bar on w.
func (p *PeerServer) SetProgressOutput(w io.Writer) {
	if p.downloader != nil {
		p.downloader.SetProgressOutput(w)
	}
}

func (p *PeerServer) ID() string {
	return p.cfg.PeerID
}

// Addr is the address announced to the tracker.
func (p *PeerServer) Addr() string {
	return p.peerAddr
}

func (p *PeerServer) Store() *Store {
	return p.store
}

func (p *PeerServer) Metrics() *monitor.Metrics {
	return p.metrics
}

func (p *PeerServer) GetStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Peer %s serving on: %s\n", p.cfg.PeerID, p.peerAddr)
	fmt.Fprintf(&b, "Tracker: %s\n", p.cfg.TrackerAddr)

	files := p.store.Files()
	fmt.Fprintf(&b, "Shared Files: %d\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, " - File: %s Size: %d bytes Chunks: %d\n", f.Name, f.Size, f.NumChunks)
	}

	s := p.metrics.Snapshot()
	fmt.Fprintf(&b, "Served: %d chunks (%d bytes)\n", s.ChunksServed, s.BytesServed)
	fmt.Fprintf(&b, "Fetched: %d chunks (%d bytes), %d downloads\n", s.ChunksFetched, s.BytesFetched, s.FilesDownloaded)
	return b.String()
}

// Stop ends the heartbeat, closes the chunk listener and flushes the log.
func (p *PeerServer) Stop() error {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
	logger.Sugar.Infof("[PeerServer] Peer %s stopped", p.cfg.PeerID)
	return multierr.Combine(p.chunkServer.Close(), logger.Log.Sync())
}
