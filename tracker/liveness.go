package tracker

import "time"

// DefaultStaleAfter is how long a peer may stay silent before a sweep evicts
// it from every file record.
const DefaultStaleAfter = 30 * time.Second

// LivenessTracker remembers when each peer was last heard from. Entries are
// only ever refreshed, never removed. Not safe for concurrent use.
type LivenessTracker struct {
	lastSeen map[string]time.Time
}

func NewLivenessTracker() *LivenessTracker {
	return &LivenessTracker{lastSeen: make(map[string]time.Time)}
}

func (l *LivenessTracker) Touch(peerID string, now time.Time) {
	l.lastSeen[peerID] = now
}

// Stale lists peers whose last-seen time is before now-threshold.
func (l *LivenessTracker) Stale(now time.Time, threshold time.Duration) []string {
	cutoff := now.Add(-threshold)
	var stale []string
	for id, seen := range l.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}

func (l *LivenessTracker) LastSeen(peerID string) (time.Time, bool) {
	t, ok := l.lastSeen[peerID]
	return t, ok
}

func (l *LivenessTracker) Len() int {
	return len(l.lastSeen)
}
