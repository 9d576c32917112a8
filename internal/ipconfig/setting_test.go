package ipconfig

import (
	"net/netip"
	"testing"

	"github.com/SailorOrion/NetworkManager/internal/config"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func int64Ptr(v int64) *int64 { return &v }

func TestMergeSetting(t *testing.T) {
	c := New(NewIndex(netobj.IPv4), 2)
	defer c.Release()
	c.AddRoute(route(t, 2, "10.10.0.0/16", "192.0.2.1", 10, netobj.SourceDHCP))
	c.AddNameserver(ip("192.0.2.200"))
	c.AddSearch("dhcp.example")

	p := &config.IPProfile{
		Method:           config.MethodManual,
		Gateway:          "192.0.2.1",
		RouteMetric:      int64Ptr(300),
		IgnoreAutoRoutes: true,
		IgnoreAutoDNS:    true,
		Addresses: []config.AddressEntry{
			{Address: "192.0.2.5/24", Label: "eth0:cfg"},
			{Address: "2001:db8::1/64"},
		},
		Routes: []config.RouteEntry{
			{Destination: "198.51.100.77/24", NextHop: "192.0.2.254"},
			{Destination: "203.0.113.0/24", Metric: int64Ptr(5), Attributes: cty.ObjectVal(map[string]cty.Value{
				"mtu":      cty.NumberIntVal(1400),
				"lock_mtu": cty.True,
				"src":      cty.StringVal("192.0.2.5"),
			})},
			{Destination: "0.0.0.0/0", NextHop: "192.0.2.1"},
		},
		DNS:         []string{"192.0.2.53", "192.0.2.53", "2001:db8::53"},
		DNSSearch:   []string{"example.com.", "example.com"},
		DNSOptions:  []string{"rotate", "nonsense"},
		DNSPriority: 50,
	}
	c.MergeSetting(p, 1000)

	gw, ok := c.Gateway()
	require.True(t, ok)
	assert.Equal(t, ip("192.0.2.1"), gw)
	assert.Equal(t, int64(300), c.RouteMetric())
	assert.False(t, c.NeverDefault())

	addrs := c.Addresses()
	require.Len(t, addrs, 1)
	assert.Equal(t, netobj.SourceUser, addrs[0].Source)
	assert.Equal(t, netobj.LifetimePermanent, addrs[0].Lifetime)
	assert.Equal(t, netobj.LifetimePermanent, addrs[0].Preferred)
	assert.Equal(t, addrs[0].Addr, addrs[0].Peer)
	assert.Equal(t, "eth0:cfg", addrs[0].Label)

	routes := c.Routes()
	require.Len(t, routes, 2, "auto routes are dropped and default routes skipped")
	assert.Equal(t, ip("198.51.100.0"), routes[0].Network)
	assert.Equal(t, uint32(1000), routes[0].Metric)
	assert.Equal(t, netobj.SourceUser, routes[0].Source)
	assert.Equal(t, uint32(5), routes[1].Metric)
	assert.Equal(t, uint32(1400), routes[1].Attrs.MTU)
	assert.True(t, routes[1].Attrs.LockMTU)
	assert.Equal(t, ip("192.0.2.5"), routes[1].PrefSrc)

	assert.Equal(t, []netip.Addr{ip("192.0.2.53")}, c.Nameservers())
	assert.Equal(t, []string{"example.com"}, c.Searches())
	assert.Equal(t, []string{"rotate"}, c.DNSOptions())
	assert.Equal(t, 50, c.DNSPriority())
}

func TestMergeSetting_KeepsCapturedMetricAndDNS(t *testing.T) {
	c := New(NewIndex(netobj.IPv4), 2)
	defer c.Release()
	c.SetRouteMetric(20)
	c.SetDNSPriority(7)
	c.AddNameserver(ip("192.0.2.200"))

	c.MergeSetting(&config.IPProfile{
		RouteMetric:  int64Ptr(300),
		NeverDefault: true,
		DNS:          []string{"192.0.2.53"},
	}, 0)

	assert.Equal(t, int64(20), c.RouteMetric())
	assert.True(t, c.NeverDefault())
	assert.Equal(t, []netip.Addr{ip("192.0.2.200"), ip("192.0.2.53")}, c.Nameservers())
	assert.Equal(t, 7, c.DNSPriority(), "zero priority leaves the current one")

	c.MergeSetting(nil, 0)
	assert.Len(t, c.Nameservers(), 2)
}

func TestCreateSetting(t *testing.T) {
	c := New(NewIndex(netobj.IPv4), 2)
	defer c.Release()

	static := addr(t, 2, "192.0.2.5/24", netobj.SourceUser)
	static.Label = "eth0:a"
	c.AddAddress(static)
	c.SetGateway(ip("192.0.2.1"))
	c.SetRouteMetric(50)
	userRoute := route(t, 2, "198.51.100.0/24", "192.0.2.254", 10, netobj.SourceUser)
	userRoute.Attrs.Window = 1000
	c.AddRoute(userRoute)
	c.AddRoute(route(t, 2, "203.0.113.0/24", "", 20, netobj.SourceRTProtStatic))
	c.AddRoute(route(t, 2, "10.0.0.0/8", "192.0.2.1", 30, netobj.SourceDHCP))
	c.AddNameserver(ip("192.0.2.53"))
	c.AddSearch("example.com")
	c.SetDNSPriority(-10)

	p := c.CreateSetting()
	assert.Equal(t, config.MethodManual, p.Method)
	assert.Equal(t, []config.AddressEntry{{Address: "192.0.2.5/24", Label: "eth0:a"}}, p.Addresses)
	assert.Equal(t, "192.0.2.1", p.Gateway)
	assert.Equal(t, int64(50), p.RouteMetricValue())
	require.Len(t, p.Routes, 2)
	assert.Equal(t, "198.51.100.0/24", p.Routes[0].Destination)
	assert.Equal(t, "192.0.2.254", p.Routes[0].NextHop)
	attrs, _ := p.Routes[0].RouteAttributes()
	assert.Equal(t, uint32(1000), attrs.Window)
	assert.Equal(t, "203.0.113.0/24", p.Routes[1].Destination)
	assert.Equal(t, []string{"192.0.2.53"}, p.DNS)
	assert.Equal(t, []string{"example.com"}, p.DNSSearch)
	assert.Equal(t, -10, p.DNSPriority)

	require.Empty(t, p.Validate(netobj.IPv4, "ipv4"))
}

func TestCreateSetting_Methods(t *testing.T) {
	var nilConfig *Config
	assert.Equal(t, config.MethodDisabled, nilConfig.CreateSetting().Method)

	c := New(NewIndex(netobj.IPv4), 2)
	defer c.Release()
	c.SetGateway(ip("192.0.2.1"))
	p := c.CreateSetting()
	assert.Equal(t, config.MethodDisabled, p.Method)
	assert.Empty(t, p.Gateway, "gateway needs an address")

	dynamic := addr(t, 2, "192.0.2.9/24", netobj.SourceDHCP)
	dynamic.Lifetime = 3600
	c.AddAddress(dynamic)
	c.AddAddress(addr(t, 2, "198.51.100.1/24", netobj.SourceUser))
	p = c.CreateSetting()
	assert.Equal(t, config.MethodAuto, p.Method)
	assert.Len(t, p.Addresses, 1)
}

func TestMergeSetting_MappedAddresses(t *testing.T) {
	p := &config.IPProfile{
		Gateway:   "::ffff:192.0.2.1",
		Addresses: []config.AddressEntry{{Address: "::ffff:192.0.2.5/120"}},
		Routes:    []config.RouteEntry{{Destination: "::ffff:198.51.100.0/120"}},
		DNS:       []string{"::ffff:192.0.2.53"},
	}
	assert.NotEmpty(t, p.Validate(netobj.IPv4, "ipv4"))
	assert.Empty(t, p.Validate(netobj.IPv6, "ipv6"))

	v4 := New(NewIndex(netobj.IPv4), 2)
	defer v4.Release()
	require.NotPanics(t, func() { v4.MergeSetting(p, 0) })
	assert.Zero(t, v4.NumAddresses())
	assert.Zero(t, v4.NumRoutes())
	assert.Empty(t, v4.Nameservers())
	_, ok := v4.Gateway()
	assert.False(t, ok)

	v6 := New(NewIndex(netobj.IPv6), 2)
	defer v6.Release()
	require.NotPanics(t, func() { v6.MergeSetting(p, 0) })
	require.Equal(t, 1, v6.NumAddresses())
	assert.Equal(t, uint8(120), v6.Addresses()[0].Plen)
	assert.Equal(t, 1, v6.NumRoutes())
}
