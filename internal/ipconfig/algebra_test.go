package ipconfig

import (
	"net/netip"
	"testing"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// populated returns an IPv4 config with one object in every field.
func populated(t *testing.T, idx *Index, ifindex int) *Config {
	t.Helper()
	c := New(idx, ifindex)
	c.AddAddress(addr(t, ifindex, "192.0.2.5/24", netobj.SourceUser))
	c.AddRoute(route(t, ifindex, "198.51.100.0/24", "192.0.2.254", 10, netobj.SourceUser))
	c.SetGateway(ip("192.0.2.1"))
	c.SetRouteMetric(100)
	c.AddNameserver(ip("192.0.2.53"))
	c.AddDomain("corp.example")
	c.AddSearch("example.com")
	c.AddDNSOption("rotate")
	c.AddWINS(ip("192.0.2.60"))
	c.AddNISServer(ip("192.0.2.70"))
	c.SetNISDomain("nis.example")
	c.SetMTU(1400, netobj.SourceDHCP)
	return c
}

func addrIDs(c *Config) []netobj.AddressID {
	var ids []netobj.AddressID
	for a := range c.AllAddresses() {
		ids = append(ids, a.ID())
	}
	return ids
}

func TestMerge_SelfKeepsContent(t *testing.T) {
	c := populated(t, NewIndex(netobj.IPv4), 2)
	defer c.Release()
	before := c.Hash(false)

	c.Merge(c, 0)
	assert.Equal(t, before, c.Hash(false))
	mtu, src := c.MTU()
	assert.Equal(t, uint32(1400), mtu)
	assert.Equal(t, netobj.SourceDHCP, src)
}

func TestMerge_Flags(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	src := populated(t, idx, 2)
	defer src.Release()

	dst := New(idx, 3)
	defer dst.Release()
	dst.Merge(src, MergeNoDNS|MergeNoRoutes)

	assert.Equal(t, 1, dst.NumAddresses())
	assert.Equal(t, 3, dst.Addresses()[0].Ifindex, "merged objects take the ifindex of the destination")
	assert.Zero(t, dst.NumRoutes())
	assert.Empty(t, dst.Nameservers())
	assert.Empty(t, dst.Domains())
	assert.Empty(t, dst.WINS())
	assert.Empty(t, dst.NISServers())
	gw, ok := dst.Gateway()
	require.True(t, ok)
	assert.Equal(t, ip("192.0.2.1"), gw)

	dst.Merge(src, 0)
	assert.Equal(t, 1, dst.NumRoutes())
	assert.Equal(t, []netip.Addr{ip("192.0.2.53")}, dst.Nameservers())
	assert.Equal(t, "nis.example", dst.NISDomain())
	assert.True(t, Equal(dst, src))
}

func TestMerge_MetricAndMTU(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	a := New(idx, 2)
	defer a.Release()
	b := New(idx, 2)
	defer b.Release()

	b.SetRouteMetric(100)
	a.Merge(b, 0)
	assert.Equal(t, int64(100), a.RouteMetric(), "unset metric takes the source one")

	b.SetRouteMetric(50)
	a.Merge(b, 0)
	assert.Equal(t, int64(50), a.RouteMetric())

	b.SetRouteMetric(200)
	a.Merge(b, 0)
	assert.Equal(t, int64(50), a.RouteMetric(), "lower metric wins")

	a.SetMTU(1500, netobj.SourceDHCP)
	b.SetMTU(1280, netobj.SourceDHCP)
	a.Merge(b, 0)
	mtu, _ := a.MTU()
	assert.Equal(t, uint32(1280), mtu, "same source keeps the smaller MTU")

	b.SetMTU(9000, netobj.SourceUser)
	a.Merge(b, 0)
	mtu, src := a.MTU()
	assert.Equal(t, uint32(9000), mtu, "higher source wins")
	assert.Equal(t, netobj.SourceUser, src)

	b.SetMTU(576, netobj.SourceKernel)
	a.Merge(b, 0)
	mtu, _ = a.MTU()
	assert.Equal(t, uint32(9000), mtu)
}

func TestMerge_SourcePrecedence(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	a := New(idx, 2)
	defer a.Release()
	b := New(idx, 2)
	defer b.Release()

	a.AddAddress(addr(t, 2, "192.0.2.5/24", netobj.SourceUser))
	b.AddAddress(addr(t, 2, "192.0.2.5/24", netobj.SourceDHCP))
	a.Merge(b, 0)

	require.Equal(t, 1, a.NumAddresses())
	assert.Equal(t, netobj.SourceUser, a.Addresses()[0].Source)
}

func TestSubtract_UndoesMerge(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	a := New(idx, 2)
	defer a.Release()
	b := New(idx, 2)
	defer b.Release()
	dst := New(idx, 2)
	defer dst.Release()

	a.AddAddress(addr(t, 2, "192.0.2.5/24", netobj.SourceUser))
	a.AddAddress(addr(t, 2, "192.0.2.6/24", netobj.SourceUser))
	a.AddNameserver(ip("192.0.2.53"))
	a.AddNameserver(ip("192.0.2.54"))
	a.AddSearch("a.example")
	a.SetGateway(ip("192.0.2.1"))

	b.AddAddress(addr(t, 2, "192.0.2.6/24", netobj.SourceDHCP))
	b.AddAddress(addr(t, 2, "198.51.100.6/24", netobj.SourceDHCP))
	b.AddNameserver(ip("192.0.2.54"))
	b.AddSearch("b.example")
	b.AddRoute(route(t, 2, "203.0.113.0/24", "198.51.100.1", 0, netobj.SourceDHCP))
	b.SetGateway(ip("198.51.100.1"))
	b.SetDNSPriority(40)

	dst.Merge(a, 0)
	dst.Merge(b, 0)
	dst.Subtract(b)

	assert.Equal(t, []netobj.AddressID{addr(t, 2, "192.0.2.5/24", 0).ID()}, addrIDs(dst),
		"shared identities go with the subtracted config")
	assert.Equal(t, []netip.Addr{ip("192.0.2.53")}, dst.Nameservers())
	assert.Equal(t, []string{"a.example"}, dst.Searches())
	assert.Zero(t, dst.NumRoutes())
	_, ok := dst.Gateway()
	assert.False(t, ok)
	assert.Zero(t, dst.DNSPriority())
}

func TestSubtract_KeepsForeignGateway(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	a := New(idx, 2)
	defer a.Release()
	b := New(idx, 2)
	defer b.Release()

	a.AddAddress(addr(t, 2, "192.0.2.5/24", netobj.SourceUser))
	a.SetGateway(ip("192.0.2.1"))
	b.SetGateway(ip("192.0.2.2"))

	a.Subtract(b)
	gw, ok := a.Gateway()
	require.True(t, ok)
	assert.Equal(t, ip("192.0.2.1"), gw)

	a.ResetAddresses()
	a.Subtract(b)
	_, ok = a.Gateway()
	assert.False(t, ok, "gateway goes with the last address")
}

func TestSubtract_Self(t *testing.T) {
	c := New(NewIndex(netobj.IPv4), 2)
	defer c.Release()
	assert.Panics(t, func() { c.Subtract(c) })
	assert.Panics(t, func() { c.Subtract(nil) })
}

func TestIntersect(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	build := func(cidrs ...string) *Config {
		c := New(idx, 2)
		for _, cidr := range cidrs {
			c.AddAddress(addr(t, 2, cidr, netobj.SourceUser))
		}
		c.AddRoute(route(t, 2, "198.51.100.0/24", "", 0, netobj.SourceUser))
		c.SetGateway(ip("192.0.2.1"))
		return c
	}
	a := build("192.0.2.5/24", "192.0.2.6/24")
	defer a.Release()
	b := build("192.0.2.6/24", "192.0.2.7/24")
	defer b.Release()
	a2 := build("192.0.2.5/24", "192.0.2.6/24")
	defer a2.Release()

	a.Intersect(b)
	b.Intersect(a2)
	assert.Equal(t, addrIDs(a), addrIDs(b))
	assert.Equal(t, []netobj.AddressID{addr(t, 2, "192.0.2.6/24", 0).ID()}, addrIDs(a))
	assert.Equal(t, 1, a.NumRoutes())
	_, ok := a.Gateway()
	assert.True(t, ok)

	b.SetGateway(ip("192.0.2.2"))
	a.Intersect(b)
	_, ok = a.Gateway()
	assert.False(t, ok)
}

func TestReplace(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	dst := New(idx, 2)
	defer dst.Release()
	src := populated(t, idx, 5)
	defer src.Release()

	changed, relevant := dst.Replace(src)
	assert.True(t, changed)
	assert.True(t, relevant)
	assert.True(t, Equal(dst, src))
	assert.Equal(t, 5, dst.Ifindex())
	assert.Equal(t, src.RouteMetric(), dst.RouteMetric())

	changed, relevant = dst.Replace(src)
	assert.False(t, changed)
	assert.False(t, relevant)
}

func TestReplace_MinorChanges(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	dst := populated(t, idx, 2)
	defer dst.Release()
	src := populated(t, idx, 2)
	defer src.Release()

	src.SetRouteMetric(5)
	src.SetMSS(1360)
	src.SetMetered(true)
	short := addr(t, 2, "192.0.2.5/24", netobj.SourceDHCP)
	short.Lifetime, short.Preferred = 60, 30
	src.ResetAddresses()
	src.AddAddress(short)

	changed, relevant := dst.Replace(src)
	assert.True(t, changed)
	assert.False(t, relevant, "lifetimes, sources and scalars are not visible in the hash")
	assert.Equal(t, int64(5), dst.RouteMetric())
	assert.Equal(t, uint32(60), dst.Addresses()[0].Lifetime)
	assert.True(t, dst.Metered())
}

func TestReplace_RelevantMatchesEqual(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unchanged", func(c *Config) {}},
		{"reordered addresses", func(c *Config) {
			c.AddAddress(addr(t, 2, "192.0.2.6/24", netobj.SourceUser))
			c.addresses.Reorder(addr(t, 2, "192.0.2.6/24", 0).ID(), false)
		}},
		{"route metric", func(c *Config) {
			c.AddRoute(route(t, 2, "198.51.100.0/24", "192.0.2.254", 20, netobj.SourceUser))
		}},
		{"gateway", func(c *Config) { c.UnsetGateway() }},
		{"nameserver", func(c *Config) { c.AddNameserver(ip("192.0.2.99")) }},
		{"nis domain", func(c *Config) { c.SetNISDomain("other.example") }},
		{"mss only", func(c *Config) { c.SetMSS(1200) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := populated(t, idx, 2)
			defer dst.Release()
			src := populated(t, idx, 2)
			defer src.Release()
			tt.mutate(src)

			wasEqual := Equal(dst, src)
			_, relevant := dst.Replace(src)
			assert.Equal(t, !wasEqual, relevant)
			assert.True(t, Equal(dst, src))
			assert.Equal(t, src.Addresses(), dst.Addresses())
		})
	}
}

func TestReplace_ZoneOnlyDifferenceIsNotRelevant(t *testing.T) {
	idx := NewIndex(netobj.IPv6)
	dst := New(idx, 2)
	defer dst.Release()
	src := New(idx, 2)
	defer src.Release()

	dst.AddNameserver(ip("fe80::53%eth0"))
	dst.SetGateway(ip("fe80::1%eth0"))
	src.AddNameserver(ip("fe80::53%eth1"))
	src.SetGateway(ip("fe80::1"))
	require.True(t, Equal(dst, src))

	changed, relevant := dst.Replace(src)
	assert.False(t, changed)
	assert.False(t, relevant)
	assert.Equal(t, []netip.Addr{ip("fe80::53")}, dst.Nameservers())

	dst.DelNameserver(ip("fe80::53%eth2"))
	assert.Empty(t, dst.Nameservers())
}

func TestCombine_FamilyMismatchPanics(t *testing.T) {
	a := New(NewIndex(netobj.IPv4), 2)
	defer a.Release()
	b := New(NewIndex(netobj.IPv6), 2)
	defer b.Release()

	assert.Panics(t, func() { a.Merge(b, 0) })
	assert.Panics(t, func() { a.Replace(b) })
	assert.Panics(t, func() { a.Intersect(b) })
}
