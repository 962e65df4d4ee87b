package main

import (
	"chat-relay/infrastructure/discovery"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var discoverTimeout time.Duration

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 3*time.Second, "how long to listen for announcements")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List relay servers announced on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := discovery.Browse(cmd.Context(), discoverTimeout)
		if err != nil {
			return fmt.Errorf("browsing %s: %w", discovery.ServiceType, err)
		}
		if len(servers) == 0 {
			fmt.Println("No relay found")
			return nil
		}
		for _, server := range servers {
			tags := "accept order"
			if server.RoleTags {
				tags = "role tags"
			}
			fmt.Printf("%-30s %s:%d (%s)\n", server.Instance, server.Address(), server.Port, tags)
		}
		return nil
	},
}
