package main

import (
	"fmt"
	"os"
	"strings"

	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/tracker"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var (
	trackerCfg  = tracker.DefaultConfig()
	interactive bool
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Start the tracker",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Sugar.Infof("Starting Tracker on %s", trackerCfg.Addr)

		server := tracker.NewServer(trackerCfg)

		if !interactive {
			if err := server.Run(); err != nil {
				logger.Sugar.Error("Error starting tracker ", err)
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}

		if err := server.Start(); err != nil {
			logger.Sugar.Error("Error starting tracker ", err)
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("Tracker listening on %s\n", server.Addr())
		fmt.Println("Type 'help' for commands.")

		prompt.New(
			func(in string) { trackerExecutor(in, server) },
			trackerCompleter,
			prompt.OptionPrefix("tracker> "),
			prompt.OptionTitle("P2P Tracker"),
		).Run()
	},
}

func trackerExecutor(in string, server *tracker.Server) {
	blocks := strings.Fields(strings.TrimSpace(in))
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		fmt.Println("Stopping tracker...")
		if err := server.Stop(); err != nil {
			logger.Sugar.Warnf("[Tracker] stop: %v", err)
		}
		os.Exit(0)
	case "status":
		fmt.Print(server.GetStatus())
	case "logs":
		if len(blocks) < 2 || blocks[1] != "request" {
			fmt.Println("Usage: logs request")
			return
		}
		printEntries(server.RequestLog().Requests())
	case "logs-all":
		printEntries(server.RequestLog().Entries())
	case "logs_file":
		if len(blocks) < 2 {
			fmt.Println("Usage: logs_file <filename>")
			return
		}
		printEntries(server.RequestLog().ByFilename(blocks[1]))
	case "help":
		fmt.Println("Available commands:")
		fmt.Println("  status                - Show registered files and peers")
		fmt.Println("  logs request          - Show share and get requests")
		fmt.Println("  logs-all              - Show every logged event, heartbeats included")
		fmt.Println("  logs_file <filename>  - Show events for one file")
		fmt.Println("  exit                  - Stop tracker and exit")
	default:
		fmt.Println("Unknown command: " + blocks[0])
	}
}

func printEntries(entries []tracker.LogEntry) {
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return
	}
	for _, e := range entries {
		fmt.Println(e.String())
	}
}

func trackerCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "status", Description: "Show registered files and peers"},
		{Text: "logs", Description: "logs request: show share/get requests"},
		{Text: "logs-all", Description: "Show every logged event"},
		{Text: "logs_file", Description: "Show events for one file"},
		{Text: "exit", Description: "Exit the tracker"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(trackerCmd)
	trackerCmd.Flags().StringVarP(&trackerCfg.Addr, "addr", "a", trackerCfg.Addr, "UDP address for the tracker to listen on")
	trackerCmd.Flags().DurationVar(&trackerCfg.StaleAfter, "stale-after", trackerCfg.StaleAfter, "Silence after which a peer is evicted on the next get")
	trackerCmd.Flags().BoolVar(&trackerCfg.Advertise, "advertise", false, "Announce the tracker over mDNS")
	trackerCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start in interactive mode")
}
