package ipconfig

import (
	"fmt"
	"io"
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

// Dump writes a human readable description of c to w.
func (c *Config) Dump(w io.Writer, detail string) {
	if c == nil {
		fmt.Fprintf(w, "--------- ipconfig (%s)\n (null)\n", detail)
		return
	}
	fmt.Fprintf(w, "--------- ipconfig %s %s (%s)\n", c.Family(), c.id, detail)
	fmt.Fprintf(w, "  ifidx: %d\n", c.ifindex)

	for a := range c.addresses.All() {
		fmt.Fprintf(w, "      a: %s\n", a)
	}
	if gw, ok := c.Gateway(); ok {
		fmt.Fprintf(w, "     gw: %s\n", gw)
	}
	for _, ns := range c.nameservers {
		fmt.Fprintf(w, "     ns: %s\n", ns)
	}
	for r := range c.routes.All() {
		fmt.Fprintf(w, "     rt: %s\n", r)
	}
	for _, d := range c.domains {
		fmt.Fprintf(w, " domain: %s\n", d)
	}
	for _, s := range c.searches {
		fmt.Fprintf(w, " search: %s\n", s)
	}
	for _, o := range c.dnsOptions {
		fmt.Fprintf(w, " dnsopt: %s\n", o)
	}
	fmt.Fprintf(w, " dnspri: %d\n", c.dnsPriority)
	fmt.Fprintf(w, "    mss: %d\n", c.mss)
	fmt.Fprintf(w, "    mtu: %d (source: %s)\n", c.mtu, c.mtuSource)

	if c.Family() == netobj.IPv4 {
		for _, s := range c.nis {
			fmt.Fprintf(w, "    nis: %s\n", s)
		}
		nisDomain := c.nisDomain
		if nisDomain == "" {
			nisDomain = "(none)"
		}
		fmt.Fprintf(w, " nisdmn: %s\n", nisDomain)
		for _, s := range c.wins {
			fmt.Fprintf(w, "   wins: %s\n", s)
		}
	}

	fmt.Fprintf(w, " n-dflt: %t\n", c.neverDefault)
	fmt.Fprintf(w, " mtrd:   %t\n", c.metered)
}

// DestinationIsDirect reports whether network/plen lies inside the peer
// network of one of the addresses.
func (c *Config) DestinationIsDirect(network netip.Addr, plen uint8) bool {
	if !network.IsValid() || netobj.FamilyOf(network) != c.Family() {
		return false
	}
	for a := range c.addresses.All() {
		if a.Plen > plen {
			continue
		}
		peerNet := a.PeerNetwork()
		if netobj.IsZeroNet(peerNet) {
			continue
		}
		if peerNet == netobj.Mask(network, a.Plen) {
			return true
		}
	}
	return false
}

// DirectRouteForHost returns the gateway-less route that covers host,
// preferring longer prefixes and then lower metrics.
func (c *Config) DirectRouteForHost(host netip.Addr) (netobj.Route, bool) {
	if !host.IsValid() || host.IsUnspecified() || netobj.FamilyOf(host) != c.Family() {
		return netobj.Route{}, false
	}
	var (
		best  netobj.Route
		found bool
	)
	for r := range c.routes.All() {
		if r.HasGateway() {
			continue
		}
		if found && best.Plen > r.Plen {
			continue
		}
		if netobj.Mask(host, r.Plen) != netobj.Mask(r.Network, r.Plen) {
			continue
		}
		if found && best.Plen == r.Plen && best.Metric <= r.Metric {
			continue
		}
		best, found = r, true
	}
	return best, found
}
