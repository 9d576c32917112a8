//go:build linux

package network

import (
	"errors"
	"fmt"
	"math"
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/clock"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/vishvananda/netlink"
	"go4.org/netipx"
	"golang.org/x/sys/unix"
)

var _ ipconfig.Platform = (*Platform)(nil)

// Platform implements ipconfig.Platform on top of a Netlinker.
type Platform struct {
	nl    Netlinker
	clock clock.Clock
	log   *logging.Logger
}

// NewPlatform creates a platform. Lifetimes of captured addresses are
// stamped with clk, which defaults to clock.Default.
func NewPlatform(nl Netlinker, clk clock.Clock) *Platform {
	if clk == nil {
		clk = clock.Default
	}
	return &Platform{
		nl:    nl,
		clock: clk,
		log:   logging.WithComponent("network"),
	}
}

func familyAF(family netobj.Family) int {
	if family == netobj.IPv6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

func (p *Platform) link(ifindex int) (netlink.Link, error) {
	link, err := p.nl.LinkByIndex(ifindex)
	if err != nil {
		return nil, fmt.Errorf("failed to find link %d: %w", ifindex, err)
	}
	return link, nil
}

// LinkMaster returns the master ifindex of a link, 0 if it has none.
func (p *Platform) LinkMaster(ifindex int) (int, error) {
	link, err := p.link(ifindex)
	if err != nil {
		return 0, err
	}
	return link.Attrs().MasterIndex, nil
}

// Addresses lists the addresses of a link.
func (p *Platform) Addresses(family netobj.Family, ifindex int) ([]netobj.Address, error) {
	link, err := p.link(ifindex)
	if err != nil {
		return nil, err
	}
	return p.addresses(link, family, ifindex)
}

func (p *Platform) addresses(link netlink.Link, family netobj.Family, ifindex int) ([]netobj.Address, error) {
	list, err := p.nl.AddrList(link, familyAF(family))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s addresses of link %d: %w", family, ifindex, err)
	}
	now := clock.Stamp(p.clock)
	out := make([]netobj.Address, 0, len(list))
	for _, na := range list {
		a, ok := fromNetlinkAddr(na, ifindex, now)
		if ok && a.Family() == family {
			out = append(out, a)
		}
	}
	return out, nil
}

// Routes lists the main-table unicast routes of a link.
func (p *Platform) Routes(family netobj.Family, ifindex int) ([]netobj.Route, error) {
	link, err := p.link(ifindex)
	if err != nil {
		return nil, err
	}
	return p.routes(link, family, ifindex)
}

func (p *Platform) routes(link netlink.Link, family netobj.Family, ifindex int) ([]netobj.Route, error) {
	list, err := p.nl.RouteList(link, familyAF(family))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s routes of link %d: %w", family, ifindex, err)
	}
	out := make([]netobj.Route, 0, len(list))
	for _, nr := range list {
		r, ok := fromNetlinkRoute(nr, family, ifindex)
		if ok && r.Family() == family {
			out = append(out, r)
		}
	}
	return out, nil
}

// AddressSync makes the addresses of a link match desired. IPv6 link-local
// addresses the kernel configured itself are left in place.
func (p *Platform) AddressSync(family netobj.Family, ifindex int, desired []netobj.Address) error {
	link, err := p.link(ifindex)
	if err != nil {
		return err
	}
	current, err := p.addresses(link, family, ifindex)
	if err != nil {
		return err
	}

	want := make(map[netobj.AddressID]bool, len(desired))
	for _, a := range desired {
		want[a.ID()] = true
	}

	var errs []error
	for _, a := range current {
		if want[a.ID()] || (family == netobj.IPv6 && a.IsLinkLocal()) {
			continue
		}
		p.log.Debug("deleting address", "ifindex", ifindex, "address", a.Prefix())
		if err := p.nl.AddrDel(link, toNetlinkAddr(a)); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete address %s: %w", a.Prefix(), err))
		}
	}

	for _, a := range desired {
		na := toNetlinkAddr(a)
		valid := clock.Remaining(p.clock, a.Timestamp, a.Lifetime)
		preferred := clock.Remaining(p.clock, a.Timestamp, a.Preferred)
		if valid == 0 {
			p.log.Debug("skipping expired address", "ifindex", ifindex, "address", a.Prefix())
			continue
		}
		if valid != clock.Permanent || preferred != clock.Permanent {
			na.ValidLft = int(valid)
			na.PreferedLft = int(min(preferred, valid))
		}
		if err := p.nl.AddrReplace(link, na); err != nil {
			errs = append(errs, fmt.Errorf("failed to add address %s: %w", a.Prefix(), err))
		}
	}
	return errors.Join(errs...)
}

// RouteSync makes the routes of a link match desired. Routes for which skip
// returns true are never deleted.
func (p *Platform) RouteSync(family netobj.Family, ifindex int, desired []netobj.Route, skip func(netobj.Route) bool) error {
	link, err := p.link(ifindex)
	if err != nil {
		return err
	}
	current, err := p.routes(link, family, ifindex)
	if err != nil {
		return err
	}

	want := make(map[netobj.RouteFullID]bool, len(desired))
	for _, r := range desired {
		want[r.FullID()] = true
	}

	var errs []error
	for _, r := range current {
		if want[r.FullID()] || (skip != nil && skip(r)) {
			continue
		}
		p.log.Debug("deleting route", "ifindex", ifindex, "route", r)
		if err := p.nl.RouteDel(toNetlinkRoute(r)); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete route %s: %w", r.Prefix(), err))
		}
	}
	for _, r := range desired {
		if err := p.nl.RouteReplace(toNetlinkRoute(r.WithIfindex(ifindex))); err != nil {
			errs = append(errs, fmt.Errorf("failed to add route %s: %w", r.Prefix(), err))
		}
	}
	return errors.Join(errs...)
}

// DeviceRouteBlacklistSet removes the prefix routes the kernel adds for new
// addresses. Routes that are already gone are not an error.
func (p *Platform) DeviceRouteBlacklistSet(family netobj.Family, ifindex int, routes []netobj.Route) error {
	var errs []error
	for _, r := range routes {
		nr := toNetlinkRoute(r.WithIfindex(ifindex))
		nr.Protocol = unix.RTPROT_KERNEL
		err := p.nl.RouteDel(nr)
		if err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, fmt.Errorf("failed to delete device route %s: %w", r.Prefix(), err))
		}
	}
	return errors.Join(errs...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conversions
// ──────────────────────────────────────────────────────────────────────────────

func lifetimeFrom(v int) uint32 {
	if v < 0 || uint64(v) >= math.MaxUint32 {
		return netobj.LifetimePermanent
	}
	return uint32(v)
}

func fromNetlinkAddr(na netlink.Addr, ifindex int, now int64) (netobj.Address, bool) {
	if na.IPNet == nil {
		return netobj.Address{}, false
	}
	prefix, ok := netipx.FromStdIPNet(na.IPNet)
	if !ok {
		return netobj.Address{}, false
	}
	a := netobj.Address{
		Ifindex:   ifindex,
		Addr:      prefix.Addr(),
		Plen:      uint8(prefix.Bits()),
		Label:     na.Label,
		Lifetime:  lifetimeFrom(na.ValidLft),
		Preferred: lifetimeFrom(na.PreferedLft),
		Source:    netobj.SourceKernel,
	}
	if a.Lifetime != netobj.LifetimePermanent || a.Preferred != netobj.LifetimePermanent {
		a.Timestamp = now
	}
	if na.Peer != nil {
		if peer, ok := netipx.FromStdIP(na.Peer.IP); ok && peer != a.Addr {
			a.Peer = peer
		}
	}
	if na.Flags&unix.IFA_F_SECONDARY != 0 {
		a.Flags |= netobj.AddressFlagSecondary
	}
	return a, true
}

func toNetlinkAddr(a netobj.Address) *netlink.Addr {
	na := &netlink.Addr{
		IPNet:     netipx.PrefixIPNet(a.Prefix()),
		Label:     a.Label,
		LinkIndex: a.Ifindex,
	}
	if a.Peer.IsValid() && a.Peer != a.Addr {
		na.Peer = netipx.PrefixIPNet(netip.PrefixFrom(a.Peer, int(a.Plen)))
	}
	return na
}

// fromNetlinkRoute converts a kernel route. A nil destination is the
// default route of family.
func fromNetlinkRoute(nr netlink.Route, family netobj.Family, ifindex int) (netobj.Route, bool) {
	if len(nr.MultiPath) > 0 || (nr.Type != 0 && nr.Type != unix.RTN_UNICAST) {
		return netobj.Route{}, false
	}
	prefix := netip.PrefixFrom(family.Any(), 0)
	if nr.Dst != nil {
		var ok bool
		if prefix, ok = netipx.FromStdIPNet(nr.Dst); !ok {
			return netobj.Route{}, false
		}
	}
	r := netobj.Route{
		Ifindex: ifindex,
		Network: prefix.Addr(),
		Plen:    uint8(prefix.Bits()),
		Metric:  uint32(nr.Priority),
		Source:  netobj.SourceFromRTProt(int(nr.Protocol)),
		Table:   uint32(nr.Table),
		Scope:   uint8(nr.Scope),
		Attrs: netobj.RouteAttributes{
			TOS:      uint8(nr.Tos),
			Window:   uint32(nr.Window),
			Cwnd:     uint32(nr.Cwnd),
			InitCwnd: uint32(nr.InitCwnd),
			InitRwnd: uint32(nr.InitRwnd),
			MTU:      uint32(nr.MTU),
			LockMTU:  nr.MTULock,
		},
	}
	if nr.Gw != nil {
		if gw, ok := netipx.FromStdIP(nr.Gw); ok {
			r.Gateway = gw
		}
	}
	if nr.Src != nil {
		if src, ok := netipx.FromStdIP(nr.Src); ok {
			r.PrefSrc = src
		}
	}
	return r.Normalize(), true
}

func toNetlinkRoute(r netobj.Route) *netlink.Route {
	nr := &netlink.Route{
		LinkIndex: r.Ifindex,
		Dst:       netipx.PrefixIPNet(r.Prefix()),
		Priority:  int(r.Metric),
		Protocol:  netlink.RouteProtocol(r.Source.RTProt()),
		Table:     int(r.Table),
		Scope:     netlink.Scope(r.Scope),
		Tos:       int(r.Attrs.TOS),
		Window:    int(r.Attrs.Window),
		Cwnd:      int(r.Attrs.Cwnd),
		InitCwnd:  int(r.Attrs.InitCwnd),
		InitRwnd:  int(r.Attrs.InitRwnd),
		MTU:       int(r.Attrs.MTU),
		MTULock:   r.Attrs.LockMTU,
	}
	if r.HasGateway() {
		nr.Gw = r.Gateway.AsSlice()
	}
	if r.PrefSrc.IsValid() {
		nr.Src = r.PrefSrc.AsSlice()
	}
	return nr
}
