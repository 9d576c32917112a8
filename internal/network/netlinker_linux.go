//go:build linux

package network

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// DefaultNetlinker operates in the namespace of the calling thread.
var DefaultNetlinker Netlinker = &RealNetlinker{}

// RealNetlinker is a concrete implementation of Netlinker that uses the
// actual netlink package. The zero value uses the current namespace.
type RealNetlinker struct {
	h *netlink.Handle
}

// NewNetlinkerAt returns a Netlinker bound to the named network namespace.
// An empty name means the current namespace. Close releases the handle.
func NewNetlinkerAt(name string) (*RealNetlinker, error) {
	if name == "" {
		return &RealNetlinker{}, nil
	}
	ns, err := netns.GetFromName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open netns %s: %w", name, err)
	}
	defer ns.Close()

	h, err := netlink.NewHandleAt(ns)
	if err != nil {
		return nil, fmt.Errorf("failed to create netlink handle in %s: %w", name, err)
	}
	return &RealNetlinker{h: h}, nil
}

// Close releases the namespace handle, if any.
func (r *RealNetlinker) Close() error {
	if r.h != nil {
		r.h.Close()
		r.h = nil
	}
	return nil
}

func (r *RealNetlinker) handle() *netlink.Handle {
	if r.h == nil {
		return &netlink.Handle{}
	}
	return r.h
}

// LinkByIndex retrieves a link by index.
func (r *RealNetlinker) LinkByIndex(index int) (netlink.Link, error) {
	return r.handle().LinkByIndex(index)
}

// LinkByName retrieves a link by name.
func (r *RealNetlinker) LinkByName(name string) (netlink.Link, error) {
	return r.handle().LinkByName(name)
}

// AddrList retrieves a list of addresses for a link.
func (r *RealNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return r.handle().AddrList(link, family)
}

// AddrReplace adds an address or updates an existing one.
func (r *RealNetlinker) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	return r.handle().AddrReplace(link, addr)
}

// AddrDel deletes an address from a link.
func (r *RealNetlinker) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	return r.handle().AddrDel(link, addr)
}

// RouteList retrieves the main-table routes of a link.
func (r *RealNetlinker) RouteList(link netlink.Link, family int) ([]netlink.Route, error) {
	return r.handle().RouteList(link, family)
}

// RouteReplace adds a route or updates an existing one.
func (r *RealNetlinker) RouteReplace(route *netlink.Route) error {
	return r.handle().RouteReplace(route)
}

// RouteDel deletes a route.
func (r *RealNetlinker) RouteDel(route *netlink.Route) error {
	return r.handle().RouteDel(route)
}
