package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// HostnameResolver performs reverse DNS lookups for discovered hosts. It
// queries the system resolver directly over UDP for tight timeout control
// and falls back to the libc resolver, which also sees mDNS and hosts file
// entries on most systems.
type HostnameResolver struct {
	timeout time.Duration
	servers []string
	client  *dns.Client
}

// NewHostnameResolver creates a resolver using the system's configured
// nameservers.
func NewHostnameResolver(timeout time.Duration) *HostnameResolver {
	r := &HostnameResolver{
		timeout: timeout,
		client:  &dns.Client{Timeout: timeout},
	}

	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil {
		for _, server := range conf.Servers {
			r.servers = append(r.servers, net.JoinHostPort(server, conf.Port))
		}
	}
	return r
}

// Lookup resolves an IP address to a hostname. Returns "" when nothing
// resolves; reverse lookup failures are expected on home networks and are
// not errors.
func (r *HostnameResolver) Lookup(ctx context.Context, ip net.IP) string {
	if name := r.lookupPTR(ctx, ip); name != "" {
		return name
	}
	return r.lookupSystem(ctx, ip)
}

func (r *HostnameResolver) lookupPTR(ctx context.Context, ip net.IP) string {
	if len(r.servers) == 0 {
		return ""
	}

	arpa, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return ""
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)

	for _, server := range r.servers {
		reply, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil || reply == nil || reply.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, rr := range reply.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				return strings.TrimSuffix(ptr.Ptr, ".")
			}
		}
	}
	return ""
}

func (r *HostnameResolver) lookupSystem(ctx context.Context, ip net.IP) string {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var resolver net.Resolver
	names, err := resolver.LookupAddr(lookupCtx, ip.String())
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}
