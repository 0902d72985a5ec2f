//go:build windows

package broadcast

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

func enableBroadcast(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1); err != nil {
			sockErr = fmt.Errorf("SO_BROADCAST: %w", err)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
