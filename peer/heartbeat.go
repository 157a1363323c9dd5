package peer

import (
	"context"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/logger"
)

const DefaultHeartbeatInterval = 5 * time.Second

// runHeartbeat sends alive immediately and then every interval until ctx
// ends. Send failures are logged and otherwise ignored.
func runHeartbeat(ctx context.Context, client *ControlClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := client.SendAlive(); err != nil {
			logger.Sugar.Debugf("[Heartbeat] alive not sent: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
