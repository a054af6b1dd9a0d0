package probe

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/logging"
)

// ARPProber checks hosts by sending ARP who-has requests on the local
// segment. It only works for targets on the same L2 network and requires
// packet capture privileges, but it finds hosts that filter ICMP and it
// learns MAC addresses directly from the replies.
//
// A single pcap handle is shared by all probes. One reader goroutine
// dispatches replies to per-IP waiters so concurrent Probe calls do not
// compete for packets.
type ARPProber struct {
	handle  *pcap.Handle
	iface   *net.Interface
	localIP net.IP
	timeout time.Duration

	mu      sync.Mutex
	waiters map[string]chan net.HardwareAddr
	done    chan struct{}
	closed  sync.Once
}

// NewARPProber opens the capture handle on the interface that owns the
// default route and starts the reply dispatcher.
func NewARPProber(timeout time.Duration) (*ARPProber, error) {
	iface, localIP, err := captureInterface()
	if err != nil {
		return nil, err
	}

	handle, err := pcap.OpenLive(iface.Name, 65536, false, pcap.BlockForever)
	if err != nil {
		return nil, errors.NewScanError(errors.CodePermission,
			"Failed to open capture handle, arp method needs CAP_NET_RAW: "+err.Error())
	}

	if err := handle.SetBPFFilter("arp"); err != nil {
		handle.Close()
		return nil, errors.WrapScanError(errors.CodeProbeFailed,
			"Failed to set capture filter", err)
	}

	p := &ARPProber{
		handle:  handle,
		iface:   iface,
		localIP: localIP,
		timeout: timeout,
		waiters: make(map[string]chan net.HardwareAddr),
		done:    make(chan struct{}),
	}
	go p.dispatch()
	return p, nil
}

// Method implements Prober.
func (p *ARPProber) Method() string { return MethodARP }

// Close stops the dispatcher and releases the capture handle.
func (p *ARPProber) Close() error {
	p.closed.Do(func() {
		close(p.done)
		p.handle.Close()
	})
	return nil
}

// Probe sends one ARP request and waits for the matching reply.
func (p *ARPProber) Probe(ctx context.Context, ip net.IP) (Result, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return Result{}, errors.ErrInvalidTarget(ip.String())
	}
	if ip4.Equal(p.localIP) {
		// The kernel does not answer our own who-has on all platforms.
		return Result{Alive: true, MAC: p.iface.HardwareAddr}, nil
	}

	reply := p.addWaiter(ip4.String())
	defer p.removeWaiter(ip4.String())

	start := time.Now()
	if err := p.sendRequest(ip4); err != nil {
		return Result{}, errors.WrapScanError(errors.CodeProbeFailed,
			"Failed to send ARP request", err)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case mac := <-reply:
		return Result{Alive: true, RTT: time.Since(start), MAC: mac}, nil
	case <-timer.C:
		return Result{Alive: false}, nil
	case <-ctx.Done():
		return Result{}, errors.NewScanErrorWithTarget(errors.CodeCanceled,
			"Probe cancelled", ip4.String())
	case <-p.done:
		return Result{}, errors.NewScanError(errors.CodeProbeFailed,
			"ARP prober closed")
	}
}

func (p *ARPProber) addWaiter(ip string) chan net.HardwareAddr {
	ch := make(chan net.HardwareAddr, 1)
	p.mu.Lock()
	p.waiters[ip] = ch
	p.mu.Unlock()
	return ch
}

func (p *ARPProber) removeWaiter(ip string) {
	p.mu.Lock()
	delete(p.waiters, ip)
	p.mu.Unlock()
}

// dispatch reads ARP replies off the wire and hands each to the waiter for
// its source address, if any.
func (p *ARPProber) dispatch() {
	src := gopacket.NewPacketSource(p.handle, layers.LayerTypeEthernet)
	in := src.Packets()

	for {
		select {
		case <-p.done:
			return
		case packet, ok := <-in:
			if !ok {
				return
			}
			arpLayer := packet.Layer(layers.LayerTypeARP)
			if arpLayer == nil {
				continue
			}
			arp := arpLayer.(*layers.ARP)
			if arp.Operation != layers.ARPReply {
				continue
			}

			ip := net.IP(arp.SourceProtAddress).String()
			mac := make(net.HardwareAddr, len(arp.SourceHwAddress))
			copy(mac, arp.SourceHwAddress)

			p.mu.Lock()
			ch, waiting := p.waiters[ip]
			p.mu.Unlock()
			if !waiting {
				continue
			}
			select {
			case ch <- mac:
			default:
				// Duplicate reply, waiter already served.
			}
		}
	}
}

func (p *ARPProber) sendRequest(dst net.IP) error {
	eth := layers.Ethernet{
		SrcMAC:       p.iface.HardwareAddr,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(p.iface.HardwareAddr),
		SourceProtAddress: []byte(p.localIP.To4()),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte(dst.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return err
	}
	return p.handle.WritePacketData(buf.Bytes())
}

// captureInterface picks the first up, non-loopback interface that carries
// an IPv4 address.
func captureInterface() (*net.Interface, net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, errors.WrapDetectionError("interface enumeration failed", err)
	}

	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipnet.IP.To4(); ip4 != nil {
					logging.Debug("Using capture interface",
						"interface", iface.Name, "ip", ip4.String())
					return iface, ip4, nil
				}
			}
		}
	}
	return nil, nil, errors.ErrNoInterface()
}
