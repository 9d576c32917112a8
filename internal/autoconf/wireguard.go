package autoconf

import (
	"errors"

	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"go4.org/netipx"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// FromWireGuard builds a config for ifindex that routes the allowed IPs of
// every peer of dev through the device. Allowed IPs of the other family are
// skipped. A default allowed IP becomes a gateway-less default route.
func FromWireGuard(idx *ipconfig.Index, ifindex int, dev *wgtypes.Device, opts Options) (*ipconfig.Config, error) {
	if dev == nil {
		err := errors.New("no WireGuard device")
		metrics.Get().RecordAutoconf(netobj.SourceVPN.String(), err)
		return nil, err
	}

	c := ipconfig.New(idx, ifindex)
	for _, peer := range dev.Peers {
		for _, ipn := range peer.AllowedIPs {
			prefix, ok := netipx.FromStdIPNet(&ipn)
			if !ok || netobj.FamilyOf(prefix.Addr()) != idx.Family {
				continue
			}
			prefix = prefix.Masked()
			if prefix.Bits() == 0 {
				c.SetGateway(idx.Family.Any())
				continue
			}
			c.AddRoute(netobj.Route{
				Network: prefix.Addr(),
				Plen:    uint8(prefix.Bits()),
				Metric:  opts.RouteMetric,
				Source:  netobj.SourceVPN,
			})
		}
	}
	if _, ok := c.Gateway(); ok && opts.RouteMetric > 0 {
		c.SetRouteMetric(int64(opts.RouteMetric))
	}

	metrics.Get().RecordAutoconf(netobj.SourceVPN.String(), nil)
	logger().Debug("imported WireGuard peers",
		"device", dev.Name,
		"peers", len(dev.Peers),
		"routes", c.NumRoutes())
	return c, nil
}
