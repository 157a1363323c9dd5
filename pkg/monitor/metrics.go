package monitor

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/logger"
)

// Metrics counts chunk traffic for one peer.
type Metrics struct {
	ChunksServed    int64
	BytesServed     int64
	ChunksFetched   int64
	BytesFetched    int64
	FilesDownloaded int64
	ServerStart     time.Time
}

func New() *Metrics {
	return &Metrics{ServerStart: time.Now()}
}

func (m *Metrics) RecordServed(bytes int) {
	atomic.AddInt64(&m.ChunksServed, 1)
	atomic.AddInt64(&m.BytesServed, int64(bytes))
}

func (m *Metrics) RecordFetched(bytes int) {
	atomic.AddInt64(&m.ChunksFetched, 1)
	atomic.AddInt64(&m.BytesFetched, int64(bytes))
}

// RecordDownload logs a finished file download and its speed.
func (m *Metrics) RecordDownload(name string, bytes int64, started time.Time) {
	atomic.AddInt64(&m.FilesDownloaded, 1)

	duration := time.Since(started).Seconds()
	var speed float64
	if duration > 0 {
		speed = float64(bytes) / duration / 1024
	}

	logger.Sugar.Infof("[Transfer] File=%s | Size=%dB | Duration=%.2fs | Speed=%.2fKB/s",
		name, bytes, duration, speed)
}

// Snapshot is a consistent-enough copy for status output.
type Snapshot struct {
	ChunksServed    int64
	BytesServed     int64
	ChunksFetched   int64
	BytesFetched    int64
	FilesDownloaded int64
	Uptime          time.Duration
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ChunksServed:    atomic.LoadInt64(&m.ChunksServed),
		BytesServed:     atomic.LoadInt64(&m.BytesServed),
		ChunksFetched:   atomic.LoadInt64(&m.ChunksFetched),
		BytesFetched:    atomic.LoadInt64(&m.BytesFetched),
		FilesDownloaded: atomic.LoadInt64(&m.FilesDownloaded),
		Uptime:          time.Since(m.ServerStart),
	}
}

// LogPeriodic logs runtime and transfer metrics every interval until ctx ends.
func (m *Metrics) LogPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		s := m.Snapshot()

		logger.Sugar.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | Served=%d chunks/%dB | Fetched=%d chunks/%dB | Downloads=%d",
			runtime.NumGoroutine(),
			ms.HeapAlloc/1024/1024,
			s.ChunksServed, s.BytesServed,
			s.ChunksFetched, s.BytesFetched,
			s.FilesDownloaded,
		)
	}
}
