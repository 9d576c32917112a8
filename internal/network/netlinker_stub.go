//go:build !linux

package network

import "github.com/vishvananda/netlink"

// DefaultNetlinker is the default RealNetlinker instance (stub).
var DefaultNetlinker Netlinker = &RealNetlinker{}

// RealNetlinker is a stub implementation of Netlinker.
type RealNetlinker struct{}

// NewNetlinkerAt always fails on this platform.
func NewNetlinkerAt(name string) (*RealNetlinker, error) {
	return nil, ErrNotSupported
}

func (r *RealNetlinker) Close() error { return nil }

func (r *RealNetlinker) LinkByIndex(index int) (netlink.Link, error) {
	return nil, ErrNotSupported
}

func (r *RealNetlinker) LinkByName(name string) (netlink.Link, error) {
	return nil, ErrNotSupported
}

func (r *RealNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return nil, ErrNotSupported
}

func (r *RealNetlinker) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	return ErrNotSupported
}

func (r *RealNetlinker) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	return ErrNotSupported
}

func (r *RealNetlinker) RouteList(link netlink.Link, family int) ([]netlink.Route, error) {
	return nil, ErrNotSupported
}

func (r *RealNetlinker) RouteReplace(route *netlink.Route) error {
	return ErrNotSupported
}

func (r *RealNetlinker) RouteDel(route *netlink.Route) error {
	return ErrNotSupported
}
