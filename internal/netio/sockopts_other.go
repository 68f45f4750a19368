//go:build !linux

package netio

import "syscall"

// controlReuseAddr is a no-op on platforms without the SO_REUSEADDR
// tuning this package applies on Linux (the bot's only supported
// deployment target, per the discovery/game-listener sizing in
// SPEC_FULL.md — this fallback just keeps cross-compilation honest).
func controlReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
