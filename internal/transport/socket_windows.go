//go:build windows

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/windows"
)

// reuseAddrListenConfig returns a net.ListenConfig that sets SO_REUSEADDR
// before bind, so multiple responders can share :5353 on the same host.
func reuseAddrListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}
