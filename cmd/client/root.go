package main

import (
	"chat-relay/client"
	"log/slog"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chat-client",
	Short: "Terminal client for the chat relay",
	Long: `chat-client - terminal client for the chat relay

Chat with everyone connected to the relay, send private messages with
@name, and exchange files through a relay-hosted rendezvous.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", client.DefaultConfigFile, "client config file")
}

// loadConfig applies the command-line flags last, over file and environment.
func loadConfig(cmd *cobra.Command) (client.Config, error) {
	cfg, err := client.LoadConfig(cfgFile)
	if err != nil {
		return client.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.ServerAddress, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.ServerPort, _ = flags.GetInt("port")
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir, _ = flags.GetString("download-dir")
	}
	if flags.Changed("io-timeout") {
		cfg.IOTimeout, _ = flags.GetDuration("io-timeout")
	}
	if flags.Changed("no-color") {
		noColor, _ := flags.GetBool("no-color")
		cfg.Colors = !noColor
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg client.Config) *slog.Logger {
	return logs.GetLoggerFromString(cfg.LogLevel)
}
