package network

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/vishvananda/netlink"
)

// DryRunNetlinker logs netlink operations. Reads go to Base when set so a
// dry run sees the real state; writes are only recorded, as ip(8)
// commands.
type DryRunNetlinker struct {
	Base Netlinker

	mu  sync.Mutex
	Ops []string
}

// NewDryRunNetlinker creates a dry run netlinker reading from base, which
// may be nil.
func NewDryRunNetlinker(base Netlinker) *DryRunNetlinker {
	return &DryRunNetlinker{Base: base, Ops: make([]string, 0)}
}

func (n *DryRunNetlinker) log(op string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Ops = append(n.Ops, fmt.Sprintf("ip %s", op))
}

// Commands returns a copy of the recorded operations.
func (n *DryRunNetlinker) Commands() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Ops...)
}

func (n *DryRunNetlinker) LinkByIndex(index int) (netlink.Link, error) {
	if n.Base != nil {
		return n.Base.LinkByIndex(index)
	}
	return &netlink.Device{LinkAttrs: netlink.LinkAttrs{Index: index, Name: fmt.Sprintf("if%d", index)}}, nil
}

func (n *DryRunNetlinker) LinkByName(name string) (netlink.Link, error) {
	if n.Base != nil {
		return n.Base.LinkByName(name)
	}
	return &netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: name}}, nil
}

func (n *DryRunNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	if n.Base != nil {
		return n.Base.AddrList(link, family)
	}
	return nil, nil
}

func (n *DryRunNetlinker) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	n.log(fmt.Sprintf("addr replace %s dev %s", formatAddr(addr), link.Attrs().Name))
	return nil
}

func (n *DryRunNetlinker) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	n.log(fmt.Sprintf("addr del %s dev %s", addr.IPNet, link.Attrs().Name))
	return nil
}

func (n *DryRunNetlinker) RouteList(link netlink.Link, family int) ([]netlink.Route, error) {
	if n.Base != nil {
		return n.Base.RouteList(link, family)
	}
	return nil, nil
}

func (n *DryRunNetlinker) RouteReplace(route *netlink.Route) error {
	n.log("route replace " + n.formatRoute(route))
	return nil
}

func (n *DryRunNetlinker) RouteDel(route *netlink.Route) error {
	n.log("route del " + n.formatRoute(route))
	return nil
}

func (n *DryRunNetlinker) linkName(index int) string {
	if link, err := n.LinkByIndex(index); err == nil && link.Attrs().Name != "" {
		return link.Attrs().Name
	}
	return fmt.Sprintf("if%d", index)
}

func lifetime(v int) string {
	if v < 0 || uint64(v) >= math.MaxUint32 {
		return "forever"
	}
	return fmt.Sprintf("%d", v)
}

func formatAddr(a *netlink.Addr) string {
	var b strings.Builder
	b.WriteString(a.IPNet.String())
	if a.Peer != nil {
		fmt.Fprintf(&b, " peer %s", a.Peer)
	}
	if a.Label != "" {
		fmt.Fprintf(&b, " label %s", a.Label)
	}
	if a.ValidLft != 0 || a.PreferedLft != 0 {
		fmt.Fprintf(&b, " valid_lft %s preferred_lft %s", lifetime(a.ValidLft), lifetime(a.PreferedLft))
	}
	return b.String()
}

func (n *DryRunNetlinker) formatRoute(r *netlink.Route) string {
	var b strings.Builder
	b.WriteString(r.Dst.String())
	if r.Gw != nil {
		fmt.Fprintf(&b, " via %s", r.Gw)
	}
	fmt.Fprintf(&b, " dev %s", n.linkName(r.LinkIndex))
	if r.Protocol != 0 {
		fmt.Fprintf(&b, " proto %d", int(r.Protocol))
	}
	if r.Table != 0 {
		fmt.Fprintf(&b, " table %d", r.Table)
	}
	if r.Scope != 0 {
		fmt.Fprintf(&b, " scope %d", uint8(r.Scope))
	}
	if r.Src != nil {
		fmt.Fprintf(&b, " src %s", r.Src)
	}
	fmt.Fprintf(&b, " metric %d", r.Priority)
	if r.MTU != 0 {
		if r.MTULock {
			fmt.Fprintf(&b, " mtu lock %d", r.MTU)
		} else {
			fmt.Fprintf(&b, " mtu %d", r.MTU)
		}
	}
	return b.String()
}
