//go:build linux || darwin || freebsd

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrListenConfig returns a net.ListenConfig that sets SO_REUSEADDR
// (and SO_REUSEPORT where supported) before bind, so multiple mDNS
// responders can share :5353 on the same host.
func reuseAddrListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			// SO_REUSEPORT is best-effort; some kernels/fds (e.g. non-UDP) may
			// reject it without affecting correctness.
			_ = sockErr
			return nil
		},
	}
}
