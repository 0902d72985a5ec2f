//go:build unix

package broadcast

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

func enableBroadcast(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
			sockErr = fmt.Errorf("SO_BROADCAST: %w", err)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
