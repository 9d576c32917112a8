package network

import (
	"errors"

	"github.com/vishvananda/netlink"
)

// ErrNotSupported is returned where netlink is unavailable.
var ErrNotSupported = errors.New("netlink not supported on this platform")

// Netlinker is an interface that abstracts netlink interactions.
// This allows for mocking netlink calls during unit testing.
type Netlinker interface {
	LinkByIndex(index int) (netlink.Link, error)
	LinkByName(name string) (netlink.Link, error)

	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
	AddrReplace(link netlink.Link, addr *netlink.Addr) error
	AddrDel(link netlink.Link, addr *netlink.Addr) error

	RouteList(link netlink.Link, family int) ([]netlink.Route, error)
	RouteReplace(route *netlink.Route) error
	RouteDel(route *netlink.Route) error
}
