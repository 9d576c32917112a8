package ipconfig

import (
	"errors"
	"fmt"

	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

// Commit pushes the addresses and routes of c to the platform.
//
// For IPv4 the implicit device route of every address is added to the
// route set, because the kernel does not report it as configured state.
// When defaultRouteMetric differs from the kernel's own device route
// metric, the kernel's copy is blacklisted instead of being kept.
//
// Unless never-default is set, the gateway becomes a default route at the
// route metric, or at defaultRouteMetric when none is set.
//
// Address, route and blacklist failures are all reported, joined.
func (c *Config) Commit(plat Platform, defaultRouteMetric uint32) error {
	fam := c.Family()
	m := metrics.Get()
	c.idx.observe()

	addrs := c.addresses.Objects()
	routes := c.routes.Objects()
	var blacklist []netobj.Route
	if fam == netobj.IPv4 {
		var dev []netobj.Route
		dev, blacklist = c.deviceRoutes(addrs, defaultRouteMetric)
		routes = append(routes, dev...)
		m.DeviceRoutes.WithLabelValues(fam.String()).Add(float64(len(dev)))
	}
	if def, ok := c.defaultRoute(defaultRouteMetric); ok {
		routes = append(routes, def)
	}

	var errs []error
	if err := plat.AddressSync(fam, c.ifindex, addrs); err != nil {
		m.RecordSyncError(fam.String(), "address")
		errs = append(errs, fmt.Errorf("failed to sync addresses: %w", err))
	}
	if err := plat.RouteSync(fam, c.ifindex, routes, skipUnmanagedRoute); err != nil {
		m.RecordSyncError(fam.String(), "route")
		errs = append(errs, fmt.Errorf("failed to sync routes: %w", err))
	}
	if len(blacklist) > 0 {
		if err := plat.DeviceRouteBlacklistSet(fam, c.ifindex, blacklist); err != nil {
			m.RecordSyncError(fam.String(), "blacklist")
			errs = append(errs, fmt.Errorf("failed to blacklist device routes: %w", err))
		}
	}

	err := errors.Join(errs...)
	m.RecordCommit(fam.String(), err)
	if err != nil {
		c.log.Warn("commit failed", "error", err)
	} else {
		c.log.Debug("committed", "addresses", len(addrs), "routes", len(routes), "blacklisted", len(blacklist))
	}
	return err
}

// skipUnmanagedRoute selects existing routes RouteSync must not delete:
// routes outside the main table and routes the kernel installed itself.
func skipUnmanagedRoute(r netobj.Route) bool {
	return !r.InMainTable() || r.Source == netobj.SourceRTProtKernel
}

// defaultRoute builds the default route through the gateway of c.
func (c *Config) defaultRoute(defaultRouteMetric uint32) (netobj.Route, bool) {
	gw, ok := c.Gateway()
	if !ok || c.neverDefault {
		return netobj.Route{}, false
	}
	metric := defaultRouteMetric
	if c.routeMetric >= 0 {
		metric = uint32(c.routeMetric)
	}
	r := netobj.Route{
		Ifindex: c.ifindex,
		Network: c.Family().Any(),
		Gateway: gw,
		Metric:  metric,
		Source:  netobj.SourceUser,
	}
	if !r.HasGateway() {
		r.Scope = netobj.ScopeLink
	}
	r = r.Normalize()
	if _, tracked := c.LookupRoute(r, false); tracked {
		return netobj.Route{}, false
	}
	return r, true
}

// deviceRoutes synthesizes the on-link route of every IPv4 address that c
// does not already track, and the kernel copies to blacklist.
func (c *Config) deviceRoutes(addrs []netobj.Address, metric uint32) (add, blacklist []netobj.Route) {
	seen := make(map[netobj.RouteFullID]bool)
	for _, a := range addrs {
		if a.Plen == 0 {
			continue
		}
		network := a.PeerNetwork()
		if netobj.IsZeroNet(network) {
			continue
		}
		r := netobj.Route{
			Ifindex: c.ifindex,
			Network: network,
			Plen:    a.Plen,
			Metric:  metric,
			Source:  netobj.SourceKernel,
			Scope:   netobj.ScopeLink,
			PrefSrc: a.Addr,
		}.Normalize()

		if _, tracked := c.LookupRoute(r, true); !tracked && !seen[r.FullID()] {
			seen[r.FullID()] = true
			add = append(add, r)
		}

		if metric != netobj.DeviceRouteMetricIPv4 {
			dev := r.WithMetric(netobj.DeviceRouteMetricIPv4)
			if _, tracked := c.LookupRoute(dev, true); !tracked && !seen[dev.FullID()] {
				seen[dev.FullID()] = true
				blacklist = append(blacklist, dev)
			}
		}
	}
	return add, blacklist
}
