// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/lennyclaes/wake-on-lan/internal/services/packet"
	"github.com/spf13/viper"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// Defaults returns the configuration used when no file is given.
func Defaults() *models.Config {
	cfg := &models.Config{}
	applyDefaults(cfg)
	return cfg
}

func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{}

	cfg.WOL = models.WOLConfig{
		MACAddress:  p.expandEnv(p.v.GetString("wol.mac_address")),
		BroadcastIP: p.expandEnv(p.v.GetString("wol.broadcast_ip")),
		Retries:     p.v.GetInt("wol.retries"),
		Interval:    p.v.GetDuration("wol.interval"),
		Port:        p.v.GetInt("wol.port"),
	}

	cfg.Listen = models.ListenConfig{
		Addresses:  p.v.GetStringSlice("listen.addresses"),
		MACAddress: p.expandEnv(p.v.GetString("listen.mac_address")),
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.WOL.Retries == 0 {
		cfg.WOL.Retries = models.DefaultRetries
	}
	if cfg.WOL.Interval == 0 {
		cfg.WOL.Interval = models.DefaultInterval
	}
	if cfg.WOL.Port == 0 {
		cfg.WOL.Port = models.DefaultPort
	}
	if len(cfg.Listen.Addresses) == 0 {
		cfg.Listen.Addresses = []string{fmt.Sprintf(":%d", models.DefaultPort)}
	}
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration. The MAC address
// is optional here since it may come from the command line.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.WOL.MACAddress != "" {
		if _, err := packet.ParseMAC(cfg.WOL.MACAddress); err != nil {
			return fmt.Errorf("wol.mac_address: %w", err)
		}
	}

	if cfg.WOL.BroadcastIP != "" {
		if ip := net.ParseIP(cfg.WOL.BroadcastIP); ip == nil || ip.To4() == nil {
			return fmt.Errorf("wol.broadcast_ip must be an IPv4 address: %q", cfg.WOL.BroadcastIP)
		}
	}

	if cfg.WOL.Retries < 1 {
		return fmt.Errorf("wol.retries must be at least 1")
	}

	if cfg.WOL.Interval <= 0 {
		return fmt.Errorf("wol.interval must be positive")
	}

	if cfg.WOL.Port < 1 || cfg.WOL.Port > 65535 {
		return fmt.Errorf("wol.port must be between 1 and 65535")
	}

	if cfg.Listen.MACAddress != "" {
		if _, err := packet.ParseMAC(cfg.Listen.MACAddress); err != nil {
			return fmt.Errorf("listen.mac_address: %w", err)
		}
	}

	return nil
}
