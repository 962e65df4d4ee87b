package main

import (
	"chat-relay/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	defaults := client.DefaultConfig()
	connectCmd.Flags().String("host", defaults.ServerAddress, "relay server address")
	connectCmd.Flags().Int("port", defaults.ServerPort, "relay server port")
	connectCmd.Flags().String("download-dir", defaults.DownloadDir, "directory for received files")
	connectCmd.Flags().Duration("io-timeout", defaults.IOTimeout, "data channel I/O timeout")
	connectCmd.Flags().Bool("no-color", false, "disable coloured output")
	rootCmd.AddCommand(connectCmd)
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Join the chat",
	Long: `Connect to the relay and chat interactively.

Commands:
  /sendfile <recipient> <path>   offer a file
  /accept <sender>               accept a pending offer
  @<name> <text>                 private message

Examples:
  chat-client connect --host relay.local --port 12345`,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := newLogger(cfg)
	console := client.NewConsole(os.Stdout, cfg.Colors)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := client.Connect(ctx, log, cfg, console)
	if err != nil {
		return err
	}
	defer session.Close()

	console.Info("Connected to %s", cfg.Endpoint())
	runErr := session.Run(ctx, os.Stdin)
	session.Wait()
	return runErr
}
