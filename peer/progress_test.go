package peer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDownloadTrackerSequence(t *testing.T) {
	dt := NewDownloadTracker("a.bin", "127.0.0.1:52611", 3)

	dt.StartChunk(0)
	if s, _ := dt.GetChunkStatus(0); s != ChunkDownloading {
		t.Fatalf("chunk 0 state = %s", s)
	}
	dt.CompleteChunk(0, 1024)
	dt.CompleteChunk(0, 1024)
	dt.StartChunk(1)
	dt.FailChunk(1)

	completed, total, bytesDone, failed := dt.GetProgress()
	if completed != 1 || total != 3 || bytesDone != 1024 || failed != 1 {
		t.Fatalf("progress = %d/%d %dB failed=%d", completed, total, bytesDone, failed)
	}
	if dt.IsComplete() {
		t.Fatal("download should not be complete")
	}
	if _, ok := dt.GetChunkStatus(3); ok {
		t.Fatal("out of range chunk should be unknown")
	}
}

func TestProgressRendererError(t *testing.T) {
	dt := NewDownloadTracker("a.bin", "x", 2)
	var out bytes.Buffer
	pr := NewProgressRenderer(dt, &out)
	pr.SetRefreshRate(5 * time.Millisecond)

	go pr.Start()
	dt.CompleteChunk(0, 10)
	time.Sleep(20 * time.Millisecond)
	pr.StopAndWait(errors.New("boom"))

	if !strings.Contains(out.String(), "Download failed at 1/2 chunks: boom") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestFormatBytes(t *testing.T) {
	for in, want := range map[float64]string{0: "0 B", 904: "904 B", 5000: "4.9 KB", 3 * 1024 * 1024: "3.0 MB"} {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%v) = %q, want %q", in, got, want)
		}
	}
}
