// Package netinfo detects the local machine's active network and expands
// CIDR ranges into probe targets. Detection walks the system interfaces and
// falls back to an outbound-dial trick when no interface carries a usable
// IPv4 address configuration.
package netinfo

import (
	"fmt"
	"net"

	"github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/logging"
)

const (
	// fallbackTarget is only dialed (UDP, no traffic sent) to learn which
	// local address routes outward.
	fallbackTarget = "8.8.8.8:80"
	fallbackBits   = 24
)

// Network describes the detected local network.
type Network struct {
	Interface string
	LocalIP   net.IP
	IPNet     *net.IPNet
}

// CIDR returns the normalized network address in CIDR notation.
func (n *Network) CIDR() string {
	if n.IPNet == nil {
		return ""
	}
	ones, _ := n.IPNet.Mask.Size()
	return fmt.Sprintf("%s/%d", n.IPNet.IP.Mask(n.IPNet.Mask), ones)
}

// Detect determines the active local IPv4 network. The first up,
// non-loopback interface with an IPv4 address wins; the outbound-dial
// fallback assumes a /24 when interface enumeration yields nothing.
func Detect() (*Network, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return detectFallback(errors.WrapDetectionError("interface enumeration failed", err))
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}

			network := &Network{
				Interface: iface.Name,
				LocalIP:   ip4,
				IPNet: &net.IPNet{
					IP:   ip4.Mask(ipnet.Mask),
					Mask: ipnet.Mask,
				},
			}
			logging.Debug("Detected local network",
				"interface", iface.Name,
				"ip", ip4.String(),
				"network", network.CIDR())
			return network, nil
		}
	}

	return detectFallback(errors.ErrNoInterface())
}

// detectFallback learns the outbound IPv4 address by dialing a public
// address. No packet is sent; UDP dial just selects a route.
func detectFallback(cause error) (*Network, error) {
	conn, err := net.Dial("udp4", fallbackTarget)
	if err != nil {
		return nil, cause
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || localAddr.IP.To4() == nil {
		return nil, cause
	}

	ip4 := localAddr.IP.To4()
	mask := net.CIDRMask(fallbackBits, 32)
	network := &Network{
		LocalIP: ip4,
		IPNet: &net.IPNet{
			IP:   ip4.Mask(mask),
			Mask: mask,
		},
	}
	logging.Warn("Interface detection failed, using outbound route fallback",
		"ip", ip4.String(),
		"network", network.CIDR())
	return network, nil
}

// ParseCIDR parses and normalizes a CIDR string into a Network without an
// interface binding.
func ParseCIDR(cidr string) (*Network, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, errors.ErrInvalidTarget(cidr)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, errors.NewScanErrorWithTarget(errors.CodeTargetInvalid,
			"Only IPv4 networks are supported", cidr)
	}
	return &Network{
		LocalIP: ip4,
		IPNet: &net.IPNet{
			IP:   ip4.Mask(ipnet.Mask),
			Mask: ipnet.Mask,
		},
	}, nil
}

// HostAddresses expands the network into probeable host addresses, skipping
// the network and broadcast addresses. Networks wider than maxBits allows
// (for example a /8 with a /16 floor) are rejected.
func (n *Network) HostAddresses(maxBits int) ([]net.IP, error) {
	ones, bits := n.IPNet.Mask.Size()
	if bits != 32 {
		return nil, errors.NewScanErrorWithTarget(errors.CodeTargetInvalid,
			"Only IPv4 networks are supported", n.CIDR())
	}
	if ones < maxBits {
		return nil, errors.NewScanErrorWithTarget(errors.CodeNetworkTooLarge,
			fmt.Sprintf("Network exceeds the /%d scan limit", maxBits), n.CIDR())
	}

	// /31 and /32 have no network/broadcast split.
	if ones >= 31 {
		var out []net.IP
		current := cloneIP(n.IPNet.IP)
		for n.IPNet.Contains(current) {
			out = append(out, cloneIP(current))
			incrementIP(current)
		}
		return out, nil
	}

	broadcast := cloneIP(n.IPNet.IP)
	for i := range broadcast {
		broadcast[i] |= ^n.IPNet.Mask[i]
	}

	capacity := 1 << (bits - ones)
	out := make([]net.IP, 0, capacity-2)
	current := cloneIP(n.IPNet.IP)
	incrementIP(current) // skip network address
	for n.IPNet.Contains(current) && !current.Equal(broadcast) {
		out = append(out, cloneIP(current))
		incrementIP(current)
	}
	return out, nil
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func incrementIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
