package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"tarun-kavipurapu/p2p-share/peer"
	"tarun-kavipurapu/p2p-share/pkg/discovery"
	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/protocol"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var (
	peerCfg         = peer.DefaultConfig()
	trackerIP       string
	trackerPort     int
	listenPort      int
	discoverTracker bool
	metricsInterval time.Duration
	fileToShare     string
	fileToGet       string
	peerInteractive bool
)

var peerCmd = &cobra.Command{
	Use:   "peer [peer_id]",
	Short: "Start a peer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			peerCfg.PeerID = args[0]
		}
		peerCfg.TrackerAddr = net.JoinHostPort(trackerIP, strconv.Itoa(trackerPort))
		peerCfg.ListenAddr = net.JoinHostPort(peerCfg.AdvertiseHost, strconv.Itoa(listenPort))

		if discoverTracker {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			addr, err := discovery.FindTracker(ctx)
			cancel()
			if err != nil {
				return fmt.Errorf("discover tracker: %w", err)
			}
			peerCfg.TrackerAddr = addr
		}

		p := peer.NewPeerServer(peerCfg)
		logger.Sugar.Infof("Starting Peer %s on %s, tracker %s", p.ID(), peerCfg.ListenAddr, peerCfg.TrackerAddr)
		if err := p.Start(); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if metricsInterval > 0 {
			go p.Metrics().LogPeriodic(ctx, metricsInterval)
		}

		if fileToShare != "" {
			if err := p.Share(fileToShare); err != nil {
				logger.Sugar.Errorf("Failed to share file: %v", err)
			}
		}
		if fileToGet != "" {
			runGet(p, fileToGet)
		}

		if !peerInteractive {
			select {}
		}

		fmt.Printf("Peer %s listening on %s\n", p.ID(), p.Addr())
		fmt.Println("Type 'help' for commands.")
		p.SetProgressOutput(os.Stdout)

		prompt.New(
			func(in string) { peerExecutor(in, p) },
			peerCompleter,
			prompt.OptionPrefix("peer> "),
			prompt.OptionTitle("P2P Peer"),
		).Run()
		return nil
	},
}

func runGet(p *peer.PeerServer, filename string) {
	path, err := p.Get(context.Background(), filename)
	switch {
	case peer.IsNotFound(err):
		fmt.Println(protocol.ReplyNotFound)
	case err != nil:
		fmt.Printf("Error downloading %s: %v\n", filename, err)
	default:
		fmt.Printf("Downloaded %s to %s\n", filename, path)
	}
}

func peerExecutor(in string, p *peer.PeerServer) {
	blocks := strings.Fields(strings.TrimSpace(in))
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		fmt.Println("Exiting...")
		if err := p.Stop(); err != nil {
			logger.Sugar.Warnf("[PeerServer] stop: %v", err)
		}
		os.Exit(0)
	case "status":
		fmt.Print(p.GetStatus())
	case "share":
		if len(blocks) != 2 {
			fmt.Println("Usage: share <path>")
			return
		}
		if err := p.Share(blocks[1]); err != nil {
			fmt.Printf("Error sharing file: %v\n", err)
		} else {
			fmt.Println("File shared.")
		}
	case "get":
		if len(blocks) != 2 {
			fmt.Println("Usage: get <filename>")
			return
		}
		runGet(p, blocks[1])
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  status           - Show shared files and transfer counters")
		fmt.Println("  share <path>     - Load a file and announce it to the tracker")
		fmt.Println("  get <filename>   - Download a file from the peers sharing it")
		fmt.Println("  exit             - Stop peer and exit")
	default:
		fmt.Println("Invalid command. Please use 'share <path>', 'get <filename>', or 'exit'.")
	}
}

func peerCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "status", Description: "Show peer status"},
		{Text: "share", Description: "Share a file"},
		{Text: "get", Description: "Download a file"},
		{Text: "exit", Description: "Exit the peer"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(peerCmd)
	host, port, _ := net.SplitHostPort(protocol.DefaultTrackerAddr)
	defaultPort, _ := strconv.Atoi(port)

	peerCmd.Flags().StringVar(&trackerIP, "tracker-ip", host, "Tracker IP address")
	peerCmd.Flags().IntVar(&trackerPort, "tracker-port", defaultPort, "Tracker port")
	peerCmd.Flags().IntVar(&listenPort, "listen-port", protocol.DefaultListenPort, "Listening port for this peer")
	peerCmd.Flags().StringVar(&peerCfg.AdvertiseHost, "host", peerCfg.AdvertiseHost, "Host to listen on and announce to the tracker")
	peerCmd.Flags().DurationVar(&peerCfg.RequestTimeout, "timeout", peerCfg.RequestTimeout, "Timeout for tracker gets and chunk fetches (0 waits forever)")
	peerCmd.Flags().DurationVar(&peerCfg.HeartbeatInterval, "heartbeat", peerCfg.HeartbeatInterval, "Interval between alive messages")
	peerCmd.Flags().StringVar(&peerCfg.DownloadDir, "dir", peerCfg.DownloadDir, "Directory downloads are written to")
	peerCmd.Flags().BoolVar(&discoverTracker, "discover", false, "Locate the tracker over mDNS instead of --tracker-ip/--tracker-port")
	peerCmd.Flags().DurationVar(&metricsInterval, "metrics-interval", 0, "Log transfer metrics at this interval (0 disables)")
	peerCmd.Flags().StringVarP(&fileToShare, "share", "s", "", "Path to a file to share immediately")
	peerCmd.Flags().StringVarP(&fileToGet, "get", "g", "", "Filename to download immediately")
	peerCmd.Flags().BoolVarP(&peerInteractive, "interactive", "i", false, "Start in interactive mode")
}
