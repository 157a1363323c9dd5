package tracker

import (
	"fmt"
	"sync"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/protocol"
)

// Outcome is recorded for get entries only.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

type LogEntry struct {
	Command  protocol.Command
	PeerID   string
	Filename string
	Time     time.Time
	Outcome  Outcome
}

func (e LogEntry) String() string {
	s := fmt.Sprintf("%s %-5s peer=%s", e.Time.Format("2006/01/02 15:04:05"), e.Command, e.PeerID)
	if e.Filename != "" {
		s += " file=" + e.Filename
	}
	if e.Outcome != OutcomeNone {
		s += " result=" + string(e.Outcome)
	}
	return s
}

// RequestLog is an append-only record of share, get and alive events. It
// carries its own lock so appends never interleave.
type RequestLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewRequestLog() *RequestLog {
	return &RequestLog{}
}

func (l *RequestLog) Append(e LogEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of every entry.
func (l *RequestLog) Entries() []LogEntry {
	return l.filter(func(LogEntry) bool { return true })
}

// Requests returns share and get entries, leaving out heartbeats.
func (l *RequestLog) Requests() []LogEntry {
	return l.filter(func(e LogEntry) bool { return e.Command != protocol.CommandAlive })
}

func (l *RequestLog) ByFilename(filename string) []LogEntry {
	return l.filter(func(e LogEntry) bool { return e.Filename == filename })
}

func (l *RequestLog) filter(keep func(LogEntry) bool) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
