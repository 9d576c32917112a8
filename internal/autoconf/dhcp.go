package autoconf

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/SailorOrion/NetworkManager/internal/clock"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"go4.org/netipx"
)

// minMTU is the smallest interface MTU a DHCP server may announce.
const minMTU = 68

// leaseForever is passed as the default lease time, so a lease without a
// lease time option is permanent.
const leaseForever = time.Duration(math.MaxUint32) * time.Second

// FromDHCPv4 builds an IPv4 config for ifindex from a DHCPv4 ACK.
//
// The leased address carries the lease time as both lifetimes. Classless
// static routes (option 121) take precedence over the router option: when
// present, the default gateway comes from their default route, as RFC 3442
// requires.
func FromDHCPv4(idx *ipconfig.Index, ifindex int, ack *dhcpv4.DHCPv4, opts Options) (*ipconfig.Config, error) {
	c, err := fromDHCPv4(idx, ifindex, ack, opts)
	metrics.Get().RecordAutoconf(netobj.SourceDHCP.String(), err)
	if err != nil {
		logger().Warn("ignoring DHCPv4 lease", "ifindex", ifindex, "error", err)
	}
	return c, err
}

func fromDHCPv4(idx *ipconfig.Index, ifindex int, ack *dhcpv4.DHCPv4, opts Options) (*ipconfig.Config, error) {
	if idx.Family != netobj.IPv4 {
		return nil, fmt.Errorf("DHCPv4 lease for %s index: %w", idx.Family, ErrFamily)
	}
	if ack == nil {
		return nil, errors.New("no DHCPv4 message")
	}
	if mt := ack.MessageType(); mt != dhcpv4.MessageTypeAck {
		return nil, fmt.Errorf("unexpected DHCPv4 message type %s", mt)
	}

	addr, ok := netipx.FromStdIP(ack.YourIPAddr)
	if !ok || !addr.Is4() || addr.IsUnspecified() {
		return nil, fmt.Errorf("lease has no usable address: %v", ack.YourIPAddr)
	}
	mask := ack.SubnetMask()
	if mask == nil {
		mask = ack.YourIPAddr.DefaultMask()
	}
	plen, bits := mask.Size()
	if bits != 32 {
		return nil, fmt.Errorf("invalid subnet mask %v", mask)
	}

	lifetime := seconds(ack.IPAddressLeaseTime(leaseForever))
	var stamp int64
	if lifetime != netobj.LifetimePermanent {
		stamp = clock.Stamp(opts.clock())
	}

	c := ipconfig.New(idx, ifindex)
	c.AddAddress(netobj.Address{
		Addr:      addr,
		Plen:      uint8(plen),
		Timestamp: stamp,
		Lifetime:  lifetime,
		Preferred: lifetime,
		Source:    netobj.SourceDHCP,
	})

	if classless := ack.ClasslessStaticRoute(); len(classless) > 0 {
		addClasslessRoutes(c, classless, opts.RouteMetric)
	} else if routers := stdAddrs(ack.Router()); len(routers) > 0 {
		c.SetGateway(routers[0])
	}
	if _, ok := c.Gateway(); ok && opts.RouteMetric > 0 {
		c.SetRouteMetric(int64(opts.RouteMetric))
	}

	for _, ns := range stdAddrs(ack.DNS()) {
		c.AddNameserver(ns)
	}
	for _, d := range strings.Fields(ack.DomainName()) {
		c.AddDomain(d)
	}
	if labels := ack.DomainSearch(); labels != nil {
		for _, s := range labels.Labels {
			c.AddSearch(s)
		}
	}

	for _, s := range stdAddrs(dhcpv4.GetIPs(dhcpv4.OptionNetworkInformationServers, ack.Options)) {
		c.AddNISServer(s)
	}
	if d := dhcpv4.GetString(dhcpv4.OptionNetworkInformationServiceDomain, ack.Options); d != "" {
		c.SetNISDomain(d)
	}
	for _, s := range stdAddrs(dhcpv4.GetIPs(dhcpv4.OptionNetBIOSOverTCPIPNameServer, ack.Options)) {
		c.AddWINS(s)
	}

	if mtu, err := dhcpv4.GetUint16(dhcpv4.OptionInterfaceMTU, ack.Options); err == nil && mtu >= minMTU {
		c.SetMTU(uint32(mtu), netobj.SourceDHCP)
	}

	logger().Debug("imported DHCPv4 lease",
		"ifindex", ifindex,
		"address", addr,
		"plen", plen,
		"lifetime", lifetime,
		"routes", c.NumRoutes())
	return c, nil
}

// addClasslessRoutes adds option 121 routes. The first default route sets
// the gateway; an unspecified router means the destination is on-link.
func addClasslessRoutes(c *ipconfig.Config, routes []*dhcpv4.Route, metric uint32) {
	for _, r := range routes {
		if r == nil || r.Dest == nil {
			continue
		}
		dst, ok := netipx.FromStdIPNet(r.Dest)
		if !ok || !dst.Addr().Is4() {
			continue
		}
		gw, _ := netipx.FromStdIP(r.Router)
		if gw.IsValid() && !gw.Is4() {
			continue
		}

		if dst.Bits() == 0 {
			if _, ok := c.Gateway(); !ok && gw.IsValid() {
				c.SetGateway(gw)
			}
			continue
		}
		c.AddRoute(netobj.Route{
			Network: dst.Addr(),
			Plen:    uint8(dst.Bits()),
			Gateway: gw,
			Metric:  metric,
			Source:  netobj.SourceDHCP,
		})
	}
}
