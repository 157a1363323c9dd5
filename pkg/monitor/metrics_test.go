package monitor

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.RecordServed(1024)
		}()
		go func() {
			defer wg.Done()
			m.RecordFetched(100)
		}()
	}
	wg.Wait()
	m.RecordDownload("a.bin", 1000, time.Now().Add(-time.Second))

	s := m.Snapshot()
	if s.ChunksServed != 10 || s.BytesServed != 10240 {
		t.Errorf("served = %d/%d", s.ChunksServed, s.BytesServed)
	}
	if s.ChunksFetched != 10 || s.BytesFetched != 1000 {
		t.Errorf("fetched = %d/%d", s.ChunksFetched, s.BytesFetched)
	}
	if s.FilesDownloaded != 1 {
		t.Errorf("downloads = %d", s.FilesDownloaded)
	}
}

func TestLogPeriodicStopsWithContext(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.LogPeriodic(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogPeriodic did not return after cancel")
	}
}
