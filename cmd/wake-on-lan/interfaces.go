package main

import (
	"fmt"

	"github.com/lennyclaes/wake-on-lan/internal/services/discovery"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List the broadcast addresses used when none is given",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ifaces, err := discovery.New(log.Logger).BroadcastAddresses(cmd.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to list interfaces")
			return err
		}

		if len(ifaces) == 0 {
			fmt.Println("No broadcast capable IPv4 interfaces found.")
			return nil
		}

		longestName := 0
		for _, iface := range ifaces {
			if len(iface.Name) > longestName {
				longestName = len(iface.Name)
			}
		}

		fmt.Println("Broadcast addresses:")
		for _, iface := range ifaces {
			fmt.Printf("  %-*s  %-15s  %s\n", longestName, iface.Name, iface.IP, iface.Broadcast)
		}
		return nil
	},
}
