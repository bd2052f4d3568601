// Package netcheck provides the cheap availability probes the worker
// runs before invoking a possibly much slower provider.
package netcheck

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// probeAddr is a well-known anycast DNS endpoint; a TCP connect there is
// a fast, dependency-free reachability signal.
const probeAddr = "8.8.8.8:53"

const probeTimeout = 3 * time.Second

// Reachable reports whether the network is usable at all. It is
// deliberately cheap: one TCP dial with a short timeout.
func Reachable(ctx context.Context) error {
	d := net.Dialer{Timeout: probeTimeout}
	conn, err := d.DialContext(ctx, "tcp", probeAddr)
	if err != nil {
		return fmt.Errorf("netcheck: %w", err)
	}
	conn.Close()
	return nil
}

// InterfaceExists reports whether the kernel knows the named interface.
func InterfaceExists(name string) bool {
	info, err := os.Stat(filepath.Join("/sys/class/net", name))
	return err == nil && info.IsDir()
}

// InterfaceConnected reports whether the named interface has carrier.
func InterfaceConnected(name string) bool {
	data, err := os.ReadFile(filepath.Join("/sys/class/net", name, "carrier"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}
