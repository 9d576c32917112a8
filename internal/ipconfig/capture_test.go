package ipconfig

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capturedPlatform(t *testing.T) *fakePlatform {
	p := newFakePlatform()

	linkLocal := addr(t, 2, "169.254.1.1/16", netobj.SourceKernel)
	secondary := addr(t, 2, "192.0.2.10/24", netobj.SourceKernel)
	secondary.Flags = netobj.AddressFlagSecondary
	primary := addr(t, 2, "192.0.2.5/24", netobj.SourceKernel)
	user := addr(t, 2, "10.0.0.1/8", netobj.SourceUser)
	labeled := addr(t, 2, "198.51.100.1/24", netobj.SourceKernel)
	labeled.Label = "eth0:x"
	p.addrs[2] = []netobj.Address{linkLocal, secondary, primary, user, labeled}

	other := route(t, 2, "203.0.113.0/24", "", 0, netobj.SourceRTProtStatic)
	other.Table = 100
	p.routes[2] = []netobj.Route{
		route(t, 2, "0.0.0.0/0", "192.0.2.1", 100, netobj.SourceRTProtStatic),
		route(t, 2, "0.0.0.0/0", "192.0.2.254", 50, netobj.SourceRTProtDHCP),
		route(t, 2, "0.0.0.0/0", "192.0.2.99", 10, netobj.SourceRTProtKernel),
		route(t, 2, "198.51.100.0/24", "192.0.2.1", 100, netobj.SourceRTProtStatic),
		route(t, 2, "192.0.2.0/24", "", 0, netobj.SourceRTProtKernel),
		other,
	}
	return p
}

func TestCapture_SlaveHasNoConfig(t *testing.T) {
	p := newFakePlatform()
	p.masters[2] = 7

	c, err := Capture(NewIndex(netobj.IPv4), p, 2, CaptureOptions{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCapture_PlatformError(t *testing.T) {
	p := newFakePlatform()
	p.listErr = errors.New("netlink down")

	_, err := Capture(NewIndex(netobj.IPv4), p, 2, CaptureOptions{})
	assert.ErrorContains(t, err, "netlink down")
}

func TestCapture_AddressOrder(t *testing.T) {
	c, err := Capture(NewIndex(netobj.IPv4), capturedPlatform(t), 2, CaptureOptions{})
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Release()

	var got []string
	for _, a := range c.Addresses() {
		got = append(got, a.Prefix().String())
	}
	assert.Equal(t, []string{
		"10.0.0.1/8",
		"198.51.100.1/24",
		"192.0.2.5/24",
		"192.0.2.10/24",
		"169.254.1.1/16",
	}, got)
}

func TestCapture_GatewayFromLowestMetricDefault(t *testing.T) {
	c, err := Capture(NewIndex(netobj.IPv4), capturedPlatform(t), 2, CaptureOptions{})
	require.NoError(t, err)
	defer c.Release()

	gw, ok := c.Gateway()
	require.True(t, ok)
	assert.Equal(t, ip("192.0.2.254"), gw)
	assert.Equal(t, int64(50), c.RouteMetric())

	routes := c.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, ip("198.51.100.0"), routes[0].Network)
}

func TestCapture_NoDefaultRoute(t *testing.T) {
	p := newFakePlatform()
	p.addrs[2] = []netobj.Address{addr(t, 2, "192.0.2.5/24", netobj.SourceKernel)}

	c, err := Capture(NewIndex(netobj.IPv4), p, 2, CaptureOptions{ResolvConf: true, ResolvContents: []byte("nameserver 192.0.2.53\n")})
	require.NoError(t, err)
	defer c.Release()

	_, ok := c.Gateway()
	assert.False(t, ok)
	assert.Equal(t, int64(-1), c.RouteMetric())
	assert.Empty(t, c.Nameservers(), "resolver configuration needs the default route")
}

func TestCapture_DeviceDefaultRoute(t *testing.T) {
	p := newFakePlatform()
	p.addrs[4] = []netobj.Address{addr(t, 4, "2001:db8::2/64", netobj.SourceKernel)}
	p.routes[4] = []netobj.Route{route(t, 4, "::/0", "", 1024, netobj.SourceRTProtBoot)}

	c, err := Capture(NewIndex(netobj.IPv6), p, 4, CaptureOptions{})
	require.NoError(t, err)
	defer c.Release()

	gw, ok := c.Gateway()
	require.True(t, ok)
	assert.True(t, gw.IsUnspecified())
	assert.Equal(t, int64(1024), c.RouteMetric())
}

func TestCapture_ResolvConf(t *testing.T) {
	contents := []byte("nameserver 192.0.2.53\nnameserver 2001:db8::53\nnameserver 0.0.0.0\noptions rotate bogus\n")

	c, err := Capture(NewIndex(netobj.IPv4), capturedPlatform(t), 2, CaptureOptions{
		ResolvConf:     true,
		ResolvContents: contents,
	})
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, []netip.Addr{ip("192.0.2.53")}, c.Nameservers())
	assert.Equal(t, []string{"rotate"}, c.DNSOptions())
}

func TestCapture_ResolvConfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(path, []byte("nameserver 2001:db8::53\nnameserver 192.0.2.53\n"), 0644))

	p := newFakePlatform()
	p.addrs[4] = []netobj.Address{addr(t, 4, "2001:db8::2/64", netobj.SourceKernel)}
	p.routes[4] = []netobj.Route{route(t, 4, "::/0", "fe80::1", 1024, netobj.SourceRTProtRA)}

	c, err := Capture(NewIndex(netobj.IPv6), p, 4, CaptureOptions{ResolvConf: true, ResolvPath: path})
	require.NoError(t, err)
	defer c.Release()
	assert.Equal(t, []netip.Addr{ip("2001:db8::53")}, c.Nameservers())

	// A missing file is not a capture failure.
	c2, err := Capture(NewIndex(netobj.IPv6), p, 4, CaptureOptions{ResolvConf: true, ResolvPath: path + ".missing"})
	require.NoError(t, err)
	defer c2.Release()
	assert.Empty(t, c2.Nameservers())
}

func TestCapture_RepeatedCaptureIsHashEqual(t *testing.T) {
	idx := NewIndex(netobj.IPv4)
	p := capturedPlatform(t)
	opts := CaptureOptions{ResolvConf: true, ResolvContents: []byte("nameserver 192.0.2.53\n")}

	a, err := Capture(idx, p, 2, opts)
	require.NoError(t, err)
	defer a.Release()
	b, err := Capture(idx, p, 2, opts)
	require.NoError(t, err)
	defer b.Release()

	assert.True(t, Equal(a, b))
	assert.Equal(t, a.Hash(true), b.Hash(true))
	assert.NotEqual(t, a.ID(), b.ID())
}
