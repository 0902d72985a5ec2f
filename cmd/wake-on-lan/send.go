package main

import (
	"fmt"
	"time"

	"github.com/lennyclaes/wake-on-lan/internal/config"
	"github.com/lennyclaes/wake-on-lan/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	sendRetries   int
	sendBroadcast string
	sendPort      int
	sendInterval  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send [MAC]",
	Short: "Send a magic packet to wake a host",
	Long: `Send a Wake-on-LAN magic packet for MAC. The MAC may use any separator
(AA:BB:CC:DD:EE:FF, aa-bb-cc-dd-ee-ff, aabbccddeeff). When omitted, the
MAC from the config file is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().IntVarP(&sendRetries, "retries", "r", 0, "number of packets to send per broadcast address (default 1)")
	sendCmd.Flags().StringVarP(&sendBroadcast, "broadcast", "b", "", "broadcast address (default: all local networks)")
	sendCmd.Flags().IntVarP(&sendPort, "port", "p", 0, "destination UDP port (default 9)")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 0, "time between packets (default 350ms)")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags override the config file.
	wolCfg := cfg.WOL
	if len(args) == 1 {
		wolCfg.MACAddress = args[0]
	}
	if cmd.Flags().Changed("retries") {
		wolCfg.Retries = sendRetries
	}
	if cmd.Flags().Changed("broadcast") {
		wolCfg.BroadcastIP = sendBroadcast
	}
	if cmd.Flags().Changed("port") {
		wolCfg.Port = sendPort
	}
	if cmd.Flags().Changed("interval") {
		wolCfg.Interval = sendInterval
	}

	if wolCfg.MACAddress == "" {
		log.Error().Msg("MAC address is required")
		return cmd.Help()
	}

	cfg.WOL = wolCfg
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := wol.New(log.Logger)
	dispatch, err := svc.Wake(ctx, wolCfg)
	if err != nil {
		log.Error().Err(err).Str("mac", wolCfg.MACAddress).Msg("wake failed")
		return err
	}

	results, err := dispatch.Wait()
	if err != nil {
		log.Error().Err(err).Msg("wake failed")
		return err
	}

	if len(results) == 0 {
		return fmt.Errorf("no broadcast addresses found")
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			log.Error().
				Err(r.Error).
				Str("target", r.Target.String()).
				Int("attempts", r.Attempts).
				Msg("target failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(results))
	}

	log.Info().
		Str("mac", wolCfg.MACAddress).
		Int("targets", len(results)).
		Msg("wake completed successfully")

	return nil
}
