//go:build !unix && !windows

package broadcast

import "syscall"

// No socket option API on these platforms; runtime defaults apply.
func enableBroadcast(_, _ string, _ syscall.RawConn) error {
	return nil
}
