package tracker

import (
	"errors"
	"sync"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
)

// ErrNotFound is returned by lookups for files that were never shared or
// whose sharers have all been evicted.
var ErrNotFound = errors.New(protocol.ReplyNotFound)

// Tracker owns the registry and liveness table behind one mutex. Every
// exported method is one critical section.
type Tracker struct {
	mu       sync.Mutex
	registry *Registry
	liveness *LivenessTracker
	log      *RequestLog

	staleAfter time.Duration
	now        func() time.Time
}

type Option func(*Tracker)

// WithClock replaces time.Now, mainly for eviction tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithStaleAfter(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.staleAfter = d
		}
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		registry:   NewRegistry(),
		liveness:   NewLivenessTracker(),
		log:        NewRequestLog(),
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Share records peerID as a holder of filename. A share also counts as a
// sign of life for the sharing peer.
func (t *Tracker) Share(filename, peerID, peerAddr string, numChunks int) {
	now := t.now()

	t.mu.Lock()
	t.registry.Share(filename, peerID, peerAddr, numChunks)
	t.liveness.Touch(peerID, now)
	t.mu.Unlock()

	t.log.Append(LogEntry{
		Command:  protocol.CommandShare,
		PeerID:   peerID,
		Filename: filename,
		Time:     now,
	})
	logger.Sugar.Infof("[Tracker] %s sharing %s at %s (%d chunks)", peerID, filename, peerAddr, numChunks)
}

// Lookup answers from the registry as it stands, without sweeping.
func (t *Tracker) Lookup(filename string) ([]string, int, error) {
	return t.lookup(filename, "", false)
}

// Get is the full get handling: refresh the requester, sweep stale peers,
// then look the file up, all in one critical section.
func (t *Tracker) Get(filename, requesterID string) ([]string, int, error) {
	return t.lookup(filename, requesterID, true)
}

func (t *Tracker) lookup(filename, requesterID string, sweep bool) ([]string, int, error) {
	now := t.now()

	t.mu.Lock()
	if requesterID != "" {
		t.liveness.Touch(requesterID, now)
	}
	var evicted []string
	if sweep {
		evicted = t.sweepLocked(now)
	}
	addrs, numChunks, ok := t.registry.Lookup(filename)
	t.mu.Unlock()

	if len(evicted) > 0 {
		logger.Sugar.Infof("[Tracker] evicted stale peers: %v", evicted)
	}

	entry := LogEntry{
		Command:  protocol.CommandGet,
		PeerID:   requesterID,
		Filename: filename,
		Time:     now,
		Outcome:  OutcomeSuccess,
	}
	if !ok {
		entry.Outcome = OutcomeFailure
		t.log.Append(entry)
		return nil, 0, ErrNotFound
	}
	t.log.Append(entry)
	return addrs, numChunks, nil
}

// Touch marks peerID as alive now.
func (t *Tracker) Touch(peerID string) {
	now := t.now()

	t.mu.Lock()
	t.liveness.Touch(peerID, now)
	t.mu.Unlock()

	t.log.Append(LogEntry{Command: protocol.CommandAlive, PeerID: peerID, Time: now})
}

// SweepStale evicts every peer silent for longer than the stale threshold
// and returns their ids.
func (t *Tracker) SweepStale() []string {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked(now)
}

func (t *Tracker) sweepLocked(now time.Time) []string {
	stale := t.liveness.Stale(now, t.staleAfter)
	for _, id := range stale {
		t.registry.RemovePeer(id)
	}
	return stale
}

func (t *Tracker) RemovePeer(peerID string) {
	t.mu.Lock()
	t.registry.RemovePeer(peerID)
	t.mu.Unlock()
}

func (t *Tracker) Files() []FileInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry.Files()
}

func (t *Tracker) KnownPeers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.liveness.Len()
}

func (t *Tracker) RequestLog() *RequestLog {
	return t.log
}
