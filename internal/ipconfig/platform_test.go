package ipconfig

import (
	"net/netip"
	"testing"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/stretchr/testify/require"
)

// fakePlatform is an in-memory Platform.
type fakePlatform struct {
	masters map[int]int
	addrs   map[int][]netobj.Address
	routes  map[int][]netobj.Route

	listErr      error
	addrSyncErr  error
	routeSyncErr error
	blacklistErr error

	syncedAddrs  []netobj.Address
	syncedRoutes []netobj.Route
	skip         func(netobj.Route) bool
	blacklist    []netobj.Route
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		masters: make(map[int]int),
		addrs:   make(map[int][]netobj.Address),
		routes:  make(map[int][]netobj.Route),
	}
}

func (p *fakePlatform) LinkMaster(ifindex int) (int, error) {
	return p.masters[ifindex], nil
}

func (p *fakePlatform) Addresses(family netobj.Family, ifindex int) ([]netobj.Address, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	var out []netobj.Address
	for _, a := range p.addrs[ifindex] {
		if a.Family() == family {
			out = append(out, a)
		}
	}
	return out, nil
}

func (p *fakePlatform) Routes(family netobj.Family, ifindex int) ([]netobj.Route, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	var out []netobj.Route
	for _, r := range p.routes[ifindex] {
		if r.Family() == family {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *fakePlatform) AddressSync(family netobj.Family, ifindex int, desired []netobj.Address) error {
	p.syncedAddrs = desired
	return p.addrSyncErr
}

func (p *fakePlatform) RouteSync(family netobj.Family, ifindex int, desired []netobj.Route, skip func(netobj.Route) bool) error {
	p.syncedRoutes = desired
	p.skip = skip
	return p.routeSyncErr
}

func (p *fakePlatform) DeviceRouteBlacklistSet(family netobj.Family, ifindex int, routes []netobj.Route) error {
	p.blacklist = routes
	return p.blacklistErr
}

// addr builds an address from CIDR notation.
func addr(t *testing.T, ifindex int, cidr string, src netobj.Source) netobj.Address {
	t.Helper()
	p, err := netip.ParsePrefix(cidr)
	require.NoError(t, err)
	return netobj.Address{
		Ifindex:   ifindex,
		Addr:      p.Addr(),
		Plen:      uint8(p.Bits()),
		Lifetime:  netobj.LifetimePermanent,
		Preferred: netobj.LifetimePermanent,
		Source:    src,
	}
}

// route builds a route from CIDR notation and an optional gateway.
func route(t *testing.T, ifindex int, cidr, gw string, metric uint32, src netobj.Source) netobj.Route {
	t.Helper()
	p, err := netip.ParsePrefix(cidr)
	require.NoError(t, err)
	r := netobj.Route{
		Ifindex: ifindex,
		Network: p.Addr(),
		Plen:    uint8(p.Bits()),
		Metric:  metric,
		Source:  src,
	}
	if gw != "" {
		r.Gateway = netip.MustParseAddr(gw)
	}
	return r.Normalize()
}

func ip(s string) netip.Addr {
	return netip.MustParseAddr(s)
}
