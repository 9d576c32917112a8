package autoconf

import (
	"net"
	"testing"

	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

func testDevice(t *testing.T) *wgtypes.Device {
	t.Helper()
	allowed := func(cidrs ...string) []net.IPNet {
		var out []net.IPNet
		for _, c := range cidrs {
			out = append(out, *ipnet(t, c))
		}
		return out
	}
	return &wgtypes.Device{
		Name: "wg0",
		Type: wgtypes.LinuxKernel,
		Peers: []wgtypes.Peer{
			{AllowedIPs: allowed("10.0.0.0/24", "fd00::/64")},
			{AllowedIPs: allowed("10.0.0.7/24", "0.0.0.0/0", "192.0.2.9/32")},
		},
	}
}

func TestFromWireGuard_IPv4(t *testing.T) {
	c, err := FromWireGuard(ipconfig.NewIndex(netobj.IPv4), 9, testDevice(t), testOptions(50))
	require.NoError(t, err)
	defer c.Release()

	gw, ok := c.Gateway()
	require.True(t, ok)
	assert.True(t, gw.IsUnspecified(), "default route without next hop")
	assert.Equal(t, int64(50), c.RouteMetric())

	routes := c.Routes()
	require.Len(t, routes, 2, "duplicate allowed IPs collapse")
	assert.Equal(t, ip("10.0.0.0"), routes[0].Network)
	assert.Equal(t, uint8(24), routes[0].Plen)
	assert.Equal(t, netobj.SourceVPN, routes[0].Source)
	assert.Equal(t, uint32(50), routes[0].Metric)
	assert.False(t, routes[0].HasGateway())
	assert.Equal(t, ip("192.0.2.9"), routes[1].Network)
	assert.Equal(t, uint8(32), routes[1].Plen)
	assert.Equal(t, 9, routes[1].Ifindex)
}

func TestFromWireGuard_IPv6(t *testing.T) {
	c, err := FromWireGuard(ipconfig.NewIndex(netobj.IPv6), 9, testDevice(t), testOptions(0))
	require.NoError(t, err)
	defer c.Release()

	_, ok := c.Gateway()
	assert.False(t, ok)
	routes := c.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, ip("fd00::"), routes[0].Network)
	assert.Equal(t, uint8(64), routes[0].Plen)
}

func TestFromWireGuard_NoDevice(t *testing.T) {
	_, err := FromWireGuard(ipconfig.NewIndex(netobj.IPv4), 9, nil, testOptions(0))
	assert.Error(t, err)
}
