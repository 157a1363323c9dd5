package main

import (
	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/tracker"
)

func main() {
	server := tracker.NewServer(tracker.DefaultConfig())

	if err := server.Run(); err != nil {
		logger.Sugar.Error("Error starting tracker ", err)
	}
}
