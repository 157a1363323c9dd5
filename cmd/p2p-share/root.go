package main

import (
	"os"

	"tarun-kavipurapu/p2p-share/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	logFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "p2p-share",
	Short: "P2P File Sharing with a central tracker",
	Long:  `A minimal peer-to-peer file sharing overlay: a UDP tracker brokers discovery, peers exchange 1024-byte chunks over TCP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("log-file") && !cmd.Flags().Changed("log-level") {
			return nil
		}
		return logger.Init(logFile, logLevel)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Sugar.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "logs/p2p-share.log", "Path of the log file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}
