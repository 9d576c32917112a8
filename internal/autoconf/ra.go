package autoconf

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/clock"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/mdlayher/ndp"
)

// slaacPrefixLen is the only prefix length stateless autoconfiguration
// forms addresses for on Ethernet-like links.
const slaacPrefixLen = 64

// FromRouterAdvertisement builds an IPv6 config for ifindex from a router
// advertisement received from router.
//
// Autonomous /64 prefixes yield an EUI-64 address derived from hw, on-link
// prefixes and route information options yield routes, and RDNSS and DNSSL
// options yield nameservers and search domains. Options with a zero
// lifetime are withdrawals and are ignored. A non-zero router lifetime makes
// router the default gateway.
func FromRouterAdvertisement(idx *ipconfig.Index, ifindex int, router netip.Addr, ra *ndp.RouterAdvertisement, hw net.HardwareAddr, opts Options) (*ipconfig.Config, error) {
	c, err := fromRouterAdvertisement(idx, ifindex, router, ra, hw, opts)
	metrics.Get().RecordAutoconf(netobj.SourceNDisc.String(), err)
	if err != nil {
		logger().Warn("ignoring router advertisement", "ifindex", ifindex, "router", router, "error", err)
	}
	return c, err
}

func fromRouterAdvertisement(idx *ipconfig.Index, ifindex int, router netip.Addr, ra *ndp.RouterAdvertisement, hw net.HardwareAddr, opts Options) (*ipconfig.Config, error) {
	if idx.Family != netobj.IPv6 {
		return nil, fmt.Errorf("router advertisement for %s index: %w", idx.Family, ErrFamily)
	}
	if ra == nil {
		return nil, errors.New("no router advertisement")
	}
	if !router.Is6() || router.Is4In6() || !router.IsLinkLocalUnicast() {
		return nil, fmt.Errorf("router %s is not a link-local address", router)
	}
	router = router.WithZone("")

	iid, haveIID := interfaceID(hw)
	stamp := clock.Stamp(opts.clock())

	c := ipconfig.New(idx, ifindex)
	if ra.RouterLifetime > 0 {
		c.SetGateway(router)
		if opts.RouteMetric > 0 {
			c.SetRouteMetric(int64(opts.RouteMetric))
		}
	}

	for _, opt := range ra.Options {
		switch o := opt.(type) {
		case *ndp.PrefixInformation:
			addPrefix(c, o, iid, haveIID, stamp, opts.RouteMetric)

		case *ndp.RouteInformation:
			if o.RouteLifetime <= 0 || !o.Prefix.Is6() || o.PrefixLength > 128 {
				continue
			}
			if o.PrefixLength == 0 {
				if _, ok := c.Gateway(); !ok {
					c.SetGateway(router)
				}
				continue
			}
			c.AddRoute(netobj.Route{
				Network: o.Prefix,
				Plen:    o.PrefixLength,
				Gateway: router,
				Metric:  opts.RouteMetric,
				Source:  netobj.SourceNDisc,
			})

		case *ndp.RecursiveDNSServer:
			if o.Lifetime <= 0 {
				continue
			}
			for _, ns := range o.Servers {
				if ns.Is6() && !ns.Is4In6() && !ns.IsUnspecified() {
					c.AddNameserver(ns.WithZone(""))
				}
			}

		case *ndp.DNSSearchList:
			if o.Lifetime <= 0 {
				continue
			}
			for _, d := range o.DomainNames {
				c.AddSearch(d)
			}
		}
	}

	logger().Debug("imported router advertisement",
		"ifindex", ifindex,
		"router", router,
		"addresses", c.NumAddresses(),
		"routes", c.NumRoutes())
	return c, nil
}

// addPrefix handles one prefix information option.
func addPrefix(c *ipconfig.Config, pi *ndp.PrefixInformation, iid [8]byte, haveIID bool, stamp int64, metric uint32) {
	if pi.ValidLifetime <= 0 || !pi.Prefix.Is6() || pi.PrefixLength > 128 {
		return
	}
	prefix := netip.PrefixFrom(pi.Prefix, int(pi.PrefixLength)).Masked()
	if prefix.Addr().IsLinkLocalUnicast() {
		return
	}

	if pi.OnLink {
		c.AddRoute(netobj.Route{
			Network: prefix.Addr(),
			Plen:    uint8(prefix.Bits()),
			Metric:  metric,
			Source:  netobj.SourceNDisc,
		})
	}

	if !pi.AutonomousAddressConfiguration || !haveIID || prefix.Bits() != slaacPrefixLen {
		return
	}
	if pi.PreferredLifetime > pi.ValidLifetime {
		return
	}
	valid, preferred := seconds(pi.ValidLifetime), seconds(pi.PreferredLifetime)
	a := netobj.Address{
		Addr:      slaacAddress(prefix.Addr(), iid),
		Plen:      slaacPrefixLen,
		Lifetime:  valid,
		Preferred: preferred,
		Source:    netobj.SourceNDisc,
	}
	if valid != netobj.LifetimePermanent {
		a.Timestamp = stamp
	}
	c.AddAddress(a)
}

// interfaceID returns the modified EUI-64 interface identifier of hw
// (RFC 4291 appendix A). Only 48-bit and 64-bit identifiers are supported.
func interfaceID(hw net.HardwareAddr) ([8]byte, bool) {
	var id [8]byte
	switch len(hw) {
	case 6:
		copy(id[:3], hw[:3])
		id[3], id[4] = 0xff, 0xfe
		copy(id[5:], hw[3:])
	case 8:
		copy(id[:], hw)
	default:
		return id, false
	}
	id[0] ^= 0x02
	return id, true
}

// slaacAddress combines a /64 prefix with an interface identifier.
func slaacAddress(prefix netip.Addr, iid [8]byte) netip.Addr {
	b := prefix.As16()
	copy(b[8:], iid[:])
	return netip.AddrFrom16(b)
}
