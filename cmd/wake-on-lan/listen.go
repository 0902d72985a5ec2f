package main

import (
	"fmt"

	"github.com/lennyclaes/wake-on-lan/internal/config"
	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/lennyclaes/wake-on-lan/internal/services/listener"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	listenAddresses []string
	listenMAC       string
	listenOnce      bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print magic packets received on this host",
	Long: `Listen for Wake-on-LAN magic packets and print the target MAC and
sender of each one. Useful to check that packets reach a network segment.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringSliceVarP(&listenAddresses, "address", "a", nil, "UDP address to listen on (repeatable, default :9)")
	listenCmd.Flags().StringVar(&listenMAC, "mac", "", "only report packets for this MAC address")
	listenCmd.Flags().BoolVar(&listenOnce, "once", false, "exit after the first packet")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("address") {
		cfg.Listen.Addresses = listenAddresses
	}
	if cmd.Flags().Changed("mac") {
		cfg.Listen.MACAddress = listenMAC
	}
	cfg.Listen.Once = listenOnce

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := listener.New(log.Logger)
	err = svc.Listen(ctx, cfg.Listen, func(p models.ReceivedPacket) {
		fmt.Printf("%s  magic packet for %s from %s on %s\n",
			p.ReceivedAt.Format("15:04:05.000"), p.Target, p.Source, p.Local)
	})
	if err != nil {
		log.Error().Err(err).Msg("listen failed")
		return err
	}

	return nil
}
