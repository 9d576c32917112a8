package config

import (
	"fmt"
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/zclconf/go-cty/cty"
)

// Profile methods.
const (
	MethodAuto     = "auto"
	MethodManual   = "manual"
	MethodDisabled = "disabled"
)

// Config is the root of the configuration file.
type Config struct {
	// DefaultRouteMetric is used for profile routes without a metric and
	// for implicit device routes.
	DefaultRouteMetric uint32 `hcl:"default_route_metric,optional" json:"default_route_metric,omitempty"`

	// ResolvConf is the resolver file read during capture.
	ResolvConf        string `hcl:"resolv_conf,optional" json:"resolv_conf,omitempty"`
	CaptureResolvConf bool   `hcl:"capture_resolv_conf,optional" json:"capture_resolv_conf,omitempty"`

	// Netns names the network namespace to operate in (empty: current).
	Netns string `hcl:"netns,optional" json:"netns,omitempty"`

	LogLevel string `hcl:"log_level,optional" json:"log_level,omitempty"`
	LogJSON  bool   `hcl:"log_json,optional" json:"log_json,omitempty"`

	Connections []*Connection `hcl:"connection,block" json:"connections,omitempty"`
}

// Connection binds profiles to an interface.
type Connection struct {
	Name      string     `hcl:"name,label" json:"name"`
	Interface string     `hcl:"interface" json:"interface"`
	IPv4      *IPProfile `hcl:"ipv4,block" json:"ipv4,omitempty"`
	IPv6      *IPProfile `hcl:"ipv6,block" json:"ipv6,omitempty"`
}

// IPProfile is the static configuration of one address family.
type IPProfile struct {
	Method    string         `hcl:"method,optional" json:"method,omitempty"`
	Addresses []AddressEntry `hcl:"address,block" json:"addresses,omitempty"`
	Gateway   string         `hcl:"gateway,optional" json:"gateway,omitempty"`
	Routes    []RouteEntry   `hcl:"route,block" json:"routes,omitempty"`

	// RouteMetric applies to the default route; unset leaves the captured one.
	RouteMetric *int64 `hcl:"route_metric,optional" json:"route_metric,omitempty"`

	NeverDefault     bool `hcl:"never_default,optional" json:"never_default,omitempty"`
	IgnoreAutoRoutes bool `hcl:"ignore_auto_routes,optional" json:"ignore_auto_routes,omitempty"`
	IgnoreAutoDNS    bool `hcl:"ignore_auto_dns,optional" json:"ignore_auto_dns,omitempty"`

	DNS         []string `hcl:"dns,optional" json:"dns,omitempty"`
	DNSSearch   []string `hcl:"dns_search,optional" json:"dns_search,omitempty"`
	DNSOptions  []string `hcl:"dns_options,optional" json:"dns_options,omitempty"`
	DNSPriority int      `hcl:"dns_priority,optional" json:"dns_priority,omitempty"`
}

// AddressEntry is a static address in CIDR notation.
type AddressEntry struct {
	Address string `hcl:"address,label" json:"address"`
	Label   string `hcl:"label,optional" json:"label,omitempty"`
}

// RouteEntry is a static route.
type RouteEntry struct {
	Destination string `hcl:"destination,label" json:"destination"`
	NextHop     string `hcl:"next_hop,optional" json:"next_hop,omitempty"`
	Metric      *int64 `hcl:"metric,optional" json:"metric,omitempty"`

	// Attributes is an object of typed per-route attributes, see
	// RouteAttributeNames.
	Attributes cty.Value `hcl:"attributes,optional" json:"-"`
}

// FindConnection returns the connection named name.
func (c *Config) FindConnection(name string) (*Connection, bool) {
	for _, conn := range c.Connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return nil, false
}

// Profile returns the profile for family, or nil.
func (c *Connection) Profile(family netobj.Family) *IPProfile {
	switch family {
	case netobj.IPv4:
		return c.IPv4
	case netobj.IPv6:
		return c.IPv6
	}
	return nil
}

// RouteMetricValue returns the configured route metric or -1.
func (p *IPProfile) RouteMetricValue() int64 {
	if p.RouteMetric == nil || *p.RouteMetric < 0 {
		return -1
	}
	return *p.RouteMetric
}

// GatewayAddr parses the gateway. An empty gateway is not an error.
func (p *IPProfile) GatewayAddr() (netip.Addr, bool, error) {
	if p.Gateway == "" {
		return netip.Addr{}, false, nil
	}
	gw, err := netip.ParseAddr(p.Gateway)
	if err != nil {
		return netip.Addr{}, false, fmt.Errorf("invalid gateway %q: %w", p.Gateway, err)
	}
	return gw, true, nil
}

// Prefix parses the address.
func (a AddressEntry) Prefix() (netip.Prefix, error) {
	p, err := netip.ParsePrefix(a.Address)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid address %q: %w", a.Address, err)
	}
	return p, nil
}

// Prefix parses the destination. A bare address is a host route.
func (r RouteEntry) Prefix() (netip.Prefix, error) {
	if p, err := netip.ParsePrefix(r.Destination); err == nil {
		return p, nil
	}
	addr, err := netip.ParseAddr(r.Destination)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid route destination %q", r.Destination)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// NextHopAddr parses the next hop. An empty next hop is not an error.
func (r RouteEntry) NextHopAddr() (netip.Addr, error) {
	if r.NextHop == "" {
		return netip.Addr{}, nil
	}
	addr, err := netip.ParseAddr(r.NextHop)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid next hop %q: %w", r.NextHop, err)
	}
	return addr, nil
}

// MetricValue returns the route metric or -1 when unset.
func (r RouteEntry) MetricValue() int64 {
	if r.Metric == nil || *r.Metric < 0 {
		return -1
	}
	return *r.Metric
}
