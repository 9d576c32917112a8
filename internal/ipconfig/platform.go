package ipconfig

import (
	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

// Platform is the kernel state a Config is captured from and committed to.
type Platform interface {
	// LinkMaster returns the ifindex of the device ifindex is enslaved to,
	// or 0.
	LinkMaster(ifindex int) (int, error)

	// Addresses returns the addresses of ifindex in kernel order.
	Addresses(family netobj.Family, ifindex int) ([]netobj.Address, error)

	// Routes returns the routes through ifindex in kernel order.
	Routes(family netobj.Family, ifindex int) ([]netobj.Route, error)

	// AddressSync makes the addresses of ifindex equal to desired.
	AddressSync(family netobj.Family, ifindex int, desired []netobj.Address) error

	// RouteSync makes the routes through ifindex equal to desired. Existing
	// routes for which skip returns true are left alone.
	RouteSync(family netobj.Family, ifindex int, desired []netobj.Route, skip func(netobj.Route) bool) error

	// DeviceRouteBlacklistSet removes the given implicit device routes and
	// keeps them from being installed on ifindex.
	DeviceRouteBlacklistSet(family netobj.Family, ifindex int, routes []netobj.Route) error
}
