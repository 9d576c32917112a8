package netobj

import (
	"fmt"
	"net/netip"
	"strings"
)

// Route tables and scopes used by the engine.
const (
	TableUnspec uint32 = 0
	TableMain   uint32 = 254

	ScopeUniverse uint8 = 0
	ScopeLink     uint8 = 253
	ScopeHost     uint8 = 254
)

// DeviceRouteMetricIPv4 is the metric the kernel uses for the implicit
// prefix route of an IPv4 address.
const DeviceRouteMetricIPv4 uint32 = 0

// RouteAttributes are optional per-route kernel metrics.
type RouteAttributes struct {
	TOS          uint8
	Window       uint32
	Cwnd         uint32
	InitCwnd     uint32
	InitRwnd     uint32
	MTU          uint32
	LockWindow   bool
	LockCwnd     bool
	LockInitCwnd bool
	LockInitRwnd bool
	LockMTU      bool
}

// Route is an IPv4 or IPv6 unicast route through an interface.
type Route struct {
	Ifindex int
	Network netip.Addr
	Plen    uint8
	Gateway netip.Addr
	Metric  uint32
	Source  Source
	Table   uint32
	Scope   uint8
	PrefSrc netip.Addr
	Attrs   RouteAttributes
}

// RouteID is the identity of a route inside one partition: destination and
// prefix length.
type RouteID struct {
	Network netip.Addr
	Plen    uint8
}

// RouteFullID is the stricter identity used for exact lookups.
type RouteFullID struct {
	RouteID
	Gateway netip.Addr
	Metric  uint32
}

// Family returns the route family.
func (r Route) Family() Family {
	return FamilyOf(r.Network)
}

// Validate panics when the prefix length is out of range for the family.
func (r Route) Validate() {
	checkPlen(r.Family(), r.Plen)
}

// Normalize clears host bits from the destination and canonicalises an
// unspecified gateway to the zero Addr.
func (r Route) Normalize() Route {
	r.Validate()
	r.Network = Mask(r.Network, r.Plen)
	if r.Gateway.IsValid() && r.Gateway.IsUnspecified() {
		r.Gateway = netip.Addr{}
	}
	if r.PrefSrc.IsValid() && r.PrefSrc.IsUnspecified() {
		r.PrefSrc = netip.Addr{}
	}
	return r
}

// ID returns the identity key.
func (r Route) ID() RouteID {
	return RouteID{Network: Mask(r.Network, r.Plen), Plen: r.Plen}
}

// FullID returns the strict identity key.
func (r Route) FullID() RouteFullID {
	return RouteFullID{RouteID: r.ID(), Gateway: r.Gateway, Metric: r.Metric}
}

// SameContent reports whether r and o agree on every field that takes part in
// configuration hashing: destination, prefix length, gateway and metric.
func (r Route) SameContent(o Route) bool {
	return r.FullID() == o.FullID()
}

// IsDefault reports whether r is a default route.
func (r Route) IsDefault() bool {
	return r.Plen == 0
}

// HasGateway reports whether the route has a next hop.
func (r Route) HasGateway() bool {
	return r.Gateway.IsValid() && !r.Gateway.IsUnspecified()
}

// InMainTable reports whether the route lives in the main routing table.
func (r Route) InMainTable() bool {
	return r.Table == TableUnspec || r.Table == TableMain
}

// Prefix returns the destination prefix.
func (r Route) Prefix() netip.Prefix {
	return netip.PrefixFrom(orAny(r.Network, r.Family()), int(r.Plen))
}

// WithIfindex returns a copy bound to ifindex.
func (r Route) WithIfindex(ifindex int) Route {
	r.Ifindex = ifindex
	return r
}

// WithSource returns a copy with the given source rank.
func (r Route) WithSource(s Source) Route {
	r.Source = s
	return r
}

// WithMetric returns a copy with the given metric.
func (r Route) WithMetric(metric uint32) Route {
	r.Metric = metric
	return r
}

func (r Route) String() string {
	var b strings.Builder
	b.WriteString(r.Prefix().String())
	if r.HasGateway() {
		fmt.Fprintf(&b, " via %s", r.Gateway)
	}
	if r.Ifindex > 0 {
		fmt.Fprintf(&b, " dev %d", r.Ifindex)
	}
	fmt.Fprintf(&b, " metric %d", r.Metric)
	if !r.InMainTable() {
		fmt.Fprintf(&b, " table %d", r.Table)
	}
	if r.Scope == ScopeLink {
		b.WriteString(" scope link")
	}
	if r.PrefSrc.IsValid() {
		fmt.Fprintf(&b, " src %s", r.PrefSrc)
	}
	if r.Attrs.MTU != 0 {
		lock := ""
		if r.Attrs.LockMTU {
			lock = "lock "
		}
		fmt.Fprintf(&b, " mtu %s%d", lock, r.Attrs.MTU)
	}
	if r.Attrs.TOS != 0 {
		fmt.Fprintf(&b, " tos 0x%x", r.Attrs.TOS)
	}
	fmt.Fprintf(&b, " rt-src %s", r.Source)
	return b.String()
}
