package probe

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"

	"github.com/lansweep/lansweep/internal/logging"
)

const procARPPath = "/proc/net/arp"

// ARPCache resolves IP addresses to MAC addresses using the kernel's ARP
// table. Probing a host first (ping or TCP) populates the table as a side
// effect, so lookups are done after the liveness check.
type ARPCache struct {
	path string
}

// NewARPCache creates a cache reader backed by /proc/net/arp with an
// `arp -n` fallback for systems without procfs.
func NewARPCache() *ARPCache {
	return &ARPCache{path: procARPPath}
}

// Lookup returns the MAC address for an IP, or nil if the kernel has no
// entry for it.
func (c *ARPCache) Lookup(ctx context.Context, ip net.IP) net.HardwareAddr {
	if f, err := os.Open(c.path); err == nil {
		defer f.Close()
		return parseProcARP(f, ip)
	}

	return c.lookupExec(ctx, ip)
}

// parseProcARP scans the procfs ARP table format:
//
//	IP address  HW type  Flags  HW address         Mask  Device
//	192.168.1.1 0x1      0x2    aa:bb:cc:dd:ee:ff  *     eth0
func parseProcARP(r io.Reader, ip net.IP) net.HardwareAddr {
	target := ip.String()
	scanner := bufio.NewScanner(r)

	// Skip header line.
	if !scanner.Scan() {
		return nil
	}

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != target {
			continue
		}
		// Flags 0x0 marks an incomplete entry.
		if fields[2] == "0x0" {
			continue
		}
		mac, err := net.ParseMAC(fields[3])
		if err != nil || isZeroMAC(mac) {
			continue
		}
		return mac
	}
	return nil
}

// lookupExec shells out to `arp -n <ip>` and scans the output for a MAC.
func (c *ARPCache) lookupExec(ctx context.Context, ip net.IP) net.HardwareAddr {
	out, err := exec.CommandContext(ctx, "arp", "-n", ip.String()).Output()
	if err != nil {
		logging.Debug("ARP table lookup failed", "ip", ip.String(), "error", err)
		return nil
	}

	for _, field := range strings.Fields(string(out)) {
		if mac, err := net.ParseMAC(field); err == nil && !isZeroMAC(mac) {
			return mac
		}
	}
	return nil
}

func isZeroMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}
