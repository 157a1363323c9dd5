package peer

import (
	"sync"
	"time"
)

// ChunkState is the state of one chunk in a download.
type ChunkState int

const (
	ChunkPending ChunkState = iota
	ChunkDownloading
	ChunkCompleted
	ChunkFailed
)

func (s ChunkState) String() string {
	switch s {
	case ChunkPending:
		return "pending"
	case ChunkDownloading:
		return "downloading"
	case ChunkCompleted:
		return "completed"
	case ChunkFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadTracker follows a sequential download chunk by chunk. Safe for
// concurrent readers while the downloader updates it.
type DownloadTracker struct {
	mu              sync.RWMutex
	FileName        string
	PeerAddr        string
	TotalChunks     int
	states          []ChunkState
	completed       int
	BytesDownloaded uint64
	StartTime       time.Time
	EndTime         time.Time
}

func NewDownloadTracker(fileName, peerAddr string, totalChunks int) *DownloadTracker {
	return &DownloadTracker{
		FileName:    fileName,
		PeerAddr:    peerAddr,
		TotalChunks: totalChunks,
		states:      make([]ChunkState, totalChunks),
		StartTime:   time.Now(),
	}
}

func (dt *DownloadTracker) StartChunk(index int) {
	dt.setState(index, ChunkDownloading)
}

func (dt *DownloadTracker) CompleteChunk(index int, bytes int) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	if index < 0 || index >= len(dt.states) {
		return
	}
	if dt.states[index] != ChunkCompleted {
		dt.completed++
		dt.BytesDownloaded += uint64(bytes)
	}
	dt.states[index] = ChunkCompleted
}

func (dt *DownloadTracker) FailChunk(index int) {
	dt.setState(index, ChunkFailed)
}

func (dt *DownloadTracker) setState(index int, s ChunkState) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	if index >= 0 && index < len(dt.states) {
		dt.states[index] = s
	}
}

func (dt *DownloadTracker) MarkComplete() {
	dt.mu.Lock()
	dt.EndTime = time.Now()
	dt.mu.Unlock()
}

// GetProgress returns completed and total chunk counts, bytes so far and
// the number of failed chunks.
func (dt *DownloadTracker) GetProgress() (completed, total int, bytes uint64, failed int) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	for _, s := range dt.states {
		if s == ChunkFailed {
			failed++
		}
	}
	return dt.completed, dt.TotalChunks, dt.BytesDownloaded, failed
}

func (dt *DownloadTracker) GetChunkStatus(index int) (ChunkState, bool) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	if index < 0 || index >= len(dt.states) {
		return ChunkPending, false
	}
	return dt.states[index], true
}

func (dt *DownloadTracker) IsComplete() bool {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	return dt.completed == dt.TotalChunks
}

func (dt *DownloadTracker) GetElapsedTime() time.Duration {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	if !dt.EndTime.IsZero() {
		return dt.EndTime.Sub(dt.StartTime)
	}
	return time.Since(dt.StartTime)
}
