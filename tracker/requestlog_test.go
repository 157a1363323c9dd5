package tracker

import (
	"strings"
	"testing"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/protocol"
)

func TestRequestLogQueries(t *testing.T) {
	l := NewRequestLog()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.Append(LogEntry{Command: protocol.CommandShare, PeerID: "A", Filename: "a.bin", Time: now})
	l.Append(LogEntry{Command: protocol.CommandAlive, PeerID: "A", Time: now})
	l.Append(LogEntry{Command: protocol.CommandGet, PeerID: "B", Filename: "a.bin", Time: now, Outcome: OutcomeSuccess})
	l.Append(LogEntry{Command: protocol.CommandGet, PeerID: "B", Filename: "b.bin", Time: now, Outcome: OutcomeFailure})

	if n := len(l.Entries()); n != 4 {
		t.Errorf("Entries() = %d, want 4", n)
	}
	if n := len(l.Requests()); n != 3 {
		t.Errorf("Requests() = %d, want 3", n)
	}
	if n := len(l.ByFilename("a.bin")); n != 2 {
		t.Errorf("ByFilename(a.bin) = %d, want 2", n)
	}
}

func TestRequestLogEntriesAreCopies(t *testing.T) {
	l := NewRequestLog()
	l.Append(LogEntry{Command: protocol.CommandAlive, PeerID: "A"})

	got := l.Entries()
	got[0].PeerID = "mutated"

	if l.Entries()[0].PeerID != "A" {
		t.Fatal("Entries() exposed internal storage")
	}
}

func TestLogEntryString(t *testing.T) {
	e := LogEntry{
		Command:  protocol.CommandGet,
		PeerID:   "B",
		Filename: "a.bin",
		Time:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Outcome:  OutcomeFailure,
	}
	s := e.String()
	for _, want := range []string{"2024/01/01 12:00:00", "get", "peer=B", "file=a.bin", "result=failure"} {
		if !strings.Contains(s, want) {
			t.Errorf("%q missing %q", s, want)
		}
	}
}
