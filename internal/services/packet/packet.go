// Package packet builds and decodes Wake-on-LAN magic packets.
package packet

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"

	"github.com/mdlayher/wol"
)

// Size is the length of a magic packet without a SecureOn password.
const Size = 6 + 16*6

// ErrInvalidAddress is returned when a MAC address does not contain exactly
// six hexadecimal byte pairs.
var ErrInvalidAddress = errors.New("invalid MAC address")

var segmentRegex = regexp.MustCompile(`[0-9a-fA-F]{2}`)

// ParseMAC extracts the six byte pairs of mac in order. Any delimiters
// between the pairs are accepted.
func ParseMAC(mac string) (net.HardwareAddr, error) {
	segments := segmentRegex.FindAllString(mac, -1)
	if len(segments) != 6 {
		return nil, fmt.Errorf("%w %q", ErrInvalidAddress, mac)
	}

	hw := make(net.HardwareAddr, 0, 6)
	for _, seg := range segments {
		b, err := strconv.ParseUint(seg, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidAddress, mac, err)
		}
		hw = append(hw, byte(b))
	}

	return hw, nil
}

// Build returns the 102 byte magic packet for mac: six 0xFF bytes followed
// by the hardware address repeated 16 times.
func Build(mac string) ([]byte, error) {
	hw, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}

	p := &wol.MagicPacket{Target: hw}
	b, err := p.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidAddress, mac, err)
	}

	return b, nil
}

// Decode returns the target hardware address carried by a magic packet.
func Decode(b []byte) (net.HardwareAddr, error) {
	var p wol.MagicPacket
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("decoding magic packet: %w", err)
	}
	return p.Target, nil
}
