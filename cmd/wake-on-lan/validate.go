package main

import (
	"fmt"
	"os"

	"github.com/lennyclaes/wake-on-lan/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without sending any packets.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Wake-on-LAN:")
	if cfg.WOL.MACAddress != "" {
		fmt.Printf("  MAC Address: %s\n", cfg.WOL.MACAddress)
	} else {
		fmt.Printf("  MAC Address: (from command line)\n")
	}
	if cfg.WOL.BroadcastIP != "" {
		fmt.Printf("  Broadcast IP: %s\n", cfg.WOL.BroadcastIP)
	} else {
		fmt.Printf("  Broadcast IP: (all local networks)\n")
	}
	fmt.Printf("  Port: %d\n", cfg.WOL.Port)
	fmt.Printf("  Retries: %d\n", cfg.WOL.Retries)
	fmt.Printf("  Interval: %s\n", cfg.WOL.Interval)

	fmt.Println()
	fmt.Println("Listener:")
	fmt.Printf("  Addresses: %v\n", cfg.Listen.Addresses)
	if cfg.Listen.MACAddress != "" {
		fmt.Printf("  MAC filter: %s\n", cfg.Listen.MACAddress)
	}

	return nil
}
