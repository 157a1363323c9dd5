package peer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/monitor"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport/tcp"
)

// Downloader pulls a whole file from the first peer the tracker names,
// one chunk per connection, in index order.
type Downloader struct {
	client  *ControlClient
	dir     string
	timeout time.Duration
	metrics *monitor.Metrics

	// progress, when set, receives a live progress bar.
	progress io.Writer
}

func NewDownloader(client *ControlClient, dir string, timeout time.Duration, metrics *monitor.Metrics) *Downloader {
	return &Downloader{
		client:  client,
		dir:     dir,
		timeout: timeout,
		metrics: metrics,
	}
}

func (d *Downloader) SetProgressOutput(w io.Writer) {
	d.progress = w
}

// Get downloads filename and returns the path of the assembled copy.
func (d *Downloader) Get(ctx context.Context, filename string) (string, error) {
	started := time.Now()

	resp, err := d.lookup(ctx, filename)
	if err != nil {
		return "", err
	}
	if resp.NumChunks > 0 && len(resp.Peers) == 0 {
		return "", fmt.Errorf("tracker returned no peers for %s", filename)
	}

	var peerAddr string
	if len(resp.Peers) > 0 {
		peerAddr = resp.Peers[0]
	}
	logger.Sugar.Infof("[Downloader] fetching %s: %d chunks from %s", filename, resp.NumChunks, peerAddr)

	tracker := NewDownloadTracker(filename, peerAddr, resp.NumChunks)
	var renderer *ProgressRenderer
	if d.progress != nil {
		renderer = NewProgressRenderer(tracker, d.progress)
		go renderer.Start()
	}

	data, err := d.fetchAll(ctx, filename, peerAddr, resp.NumChunks, tracker)
	if renderer != nil {
		renderer.StopAndWait(err)
	}
	if err != nil {
		return "", err
	}
	tracker.MarkComplete()

	path := filepath.Join(d.dir, protocol.DownloadPrefix+filename)
	if err := d.persist(path, data); err != nil {
		return "", err
	}

	if d.metrics != nil {
		d.metrics.RecordDownload(filename, int64(len(data)), started)
	}
	logger.Sugar.Infof("[Downloader] %s assembled at %s (%d bytes)", filename, path, len(data))
	return path, nil
}

func (d *Downloader) lookup(ctx context.Context, filename string) (protocol.GetResponse, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.client.SendGet(ctx, filename)
}

func (d *Downloader) fetchAll(ctx context.Context, filename, peerAddr string, numChunks int, tracker *DownloadTracker) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(numChunks * protocol.ChunkSize)

	for id := 0; id < numChunks; id++ {
		tracker.StartChunk(id)
		chunk, err := d.fetchChunk(ctx, peerAddr, filename, id)
		if err != nil {
			tracker.FailChunk(id)
			logger.Sugar.Errorf("[Downloader] chunk %d of %s from %s failed: %v", id, filename, peerAddr, err)
			return nil, err
		}
		buf.Write(chunk)
		tracker.CompleteChunk(id, len(chunk))
		if d.metrics != nil {
			d.metrics.RecordFetched(len(chunk))
		}
	}
	return buf.Bytes(), nil
}

func (d *Downloader) fetchChunk(ctx context.Context, peerAddr, filename string, id int) ([]byte, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	req := protocol.ChunkRequest{Filename: filename, ChunkID: id}
	chunk, err := tcp.Request(ctx, peerAddr, []byte(req.String()), protocol.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("fetch chunk %d of %s: %w", id, filename, err)
	}
	// A real chunk is never empty; an empty reply is the server hanging up.
	if len(chunk) == 0 {
		return nil, fmt.Errorf("fetch chunk %d of %s from %s: %w", id, filename, peerAddr, ErrMissingChunk)
	}
	return chunk, nil
}

func (d *Downloader) persist(path string, data []byte) error {
	if d.dir != "" {
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return f.Close()
}

func (d *Downloader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

// IsNotFound reports whether err is the tracker's not-found answer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
