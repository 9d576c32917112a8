//go:build !linux

package network

import (
	"github.com/SailorOrion/NetworkManager/internal/clock"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

var _ ipconfig.Platform = (*Platform)(nil)

// Platform is a stub; every operation fails with ErrNotSupported.
type Platform struct{}

// NewPlatform creates a stub platform.
func NewPlatform(nl Netlinker, clk clock.Clock) *Platform {
	return &Platform{}
}

func (p *Platform) LinkMaster(ifindex int) (int, error) {
	return 0, ErrNotSupported
}

func (p *Platform) Addresses(family netobj.Family, ifindex int) ([]netobj.Address, error) {
	return nil, ErrNotSupported
}

func (p *Platform) Routes(family netobj.Family, ifindex int) ([]netobj.Route, error) {
	return nil, ErrNotSupported
}

func (p *Platform) AddressSync(family netobj.Family, ifindex int, desired []netobj.Address) error {
	return ErrNotSupported
}

func (p *Platform) RouteSync(family netobj.Family, ifindex int, desired []netobj.Route, skip func(netobj.Route) bool) error {
	return ErrNotSupported
}

func (p *Platform) DeviceRouteBlacklistSet(family netobj.Family, ifindex int, routes []netobj.Route) error {
	return ErrNotSupported
}
