package discovery

import (
	"context"
	"testing"
	"time"
)

func TestDiscovery(t *testing.T) {
	// Skip in CI/docker environments where multicast might not work
	if testing.Short() {
		t.Skip("Skipping mDNS test in short mode")
	}

	advertiser := NewAdvertiser()
	meta := map[string]string{"type": "tracker", "test": "true"}
	port := 12345

	if err := advertiser.Start("test-tracker", port, meta); err != nil {
		t.Fatalf("Failed to start advertiser: %v", err)
	}
	defer advertiser.Stop()

	// Give it a moment to announce
	time.Sleep(500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	addr, err := FindTracker(ctx)
	if err != nil {
		t.Fatalf("FindTracker: %v", err)
	}
	if addr == "" {
		t.Fatal("discovered tracker has no address")
	}
	t.Logf("Found tracker at %s", addr)
}

func TestServiceInfoAddr(t *testing.T) {
	info := &ServiceInfo{IPs: []string{"192.168.1.4", "10.0.0.2"}, Port: 6771}
	if got := info.Addr(); got != "192.168.1.4:6771" {
		t.Fatalf("Addr() = %q", got)
	}
	if got := (&ServiceInfo{Port: 1}).Addr(); got != "" {
		t.Fatalf("Addr() without IPs = %q", got)
	}
}

func TestFindTrackerHonoursContext(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping mDNS test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// No advertiser with this instance is running; any result must come from
	// another tracker on the LAN, otherwise the browse has to give up.
	start := time.Now()
	_, _ = FindTracker(ctx)
	if time.Since(start) > 3*time.Second {
		t.Fatal("FindTracker ignored the context deadline")
	}
}
