package ipconfig

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/SailorOrion/NetworkManager/internal/dedup"
	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

// MergeFlags restrict what Merge copies.
type MergeFlags uint8

const (
	// MergeNoRoutes leaves the routes of the destination alone.
	MergeNoRoutes MergeFlags = 1 << iota
	// MergeNoDNS leaves nameservers, domains, searches, options, NIS and
	// WINS of the destination alone.
	MergeNoDNS
)

func (c *Config) checkPeer(src *Config, allowSelf bool) {
	if src == nil || (src == c && !allowSelf) {
		panic("ipconfig: invalid source config")
	}
	if src.Family() != c.Family() {
		panic(fmt.Sprintf("ipconfig: cannot combine %s and %s configs", c.Family(), src.Family()))
	}
}

// Merge adds the content of src to c. Objects that already exist are merged
// by source precedence.
func (c *Config) Merge(src *Config, flags MergeFlags) {
	c.checkPeer(src, true)
	defer c.flush()
	dns := flags&MergeNoDNS == 0

	for _, a := range src.addresses.Objects() {
		c.addAddress(a)
	}
	if dns {
		for _, ns := range src.nameservers {
			c.addNameserver(ns)
		}
	}
	if gw, ok := src.Gateway(); ok {
		c.setGateway(gw)
	}
	if flags&MergeNoRoutes == 0 {
		for _, r := range src.routes.Objects() {
			c.addRoute(r)
		}
	}

	if c.routeMetric == -1 {
		c.routeMetric = src.routeMetric
	} else if src.routeMetric != -1 {
		c.routeMetric = min(c.routeMetric, src.routeMetric)
	}

	if dns {
		for _, d := range src.domains {
			c.addDomain(d)
		}
		for _, s := range src.searches {
			c.addSearch(s)
		}
		for _, o := range src.dnsOptions {
			c.addDNSOption(o)
		}
	}

	if src.mss != 0 {
		c.mss = src.mss
	}
	if src.mtuSource > c.mtuSource ||
		(src.mtuSource == c.mtuSource &&
			((c.mtu == 0 && src.mtu != 0) || (c.mtu != 0 && src.mtu < c.mtu))) {
		c.SetMTU(src.mtu, src.mtuSource)
	}

	if dns && c.Family() == netobj.IPv4 {
		for _, s := range src.nis {
			c.nis, _ = appendUnique(c.nis, s)
		}
		if src.nisDomain != "" {
			c.nisDomain = src.nisDomain
		}
		for _, s := range src.wins {
			c.addWINS(s)
		}
	}

	c.metered = c.metered || src.metered

	if src.dnsPriority != 0 {
		c.setDNSPriority(src.dnsPriority)
	}
}

// Subtract removes the content of src from c: objects with the identity of
// an object of src, and list items equal to one of src. Scalars are cleared
// only when they are exactly what src holds, so Subtract undoes a prior
// Merge of src rather than computing a set difference.
func (c *Config) Subtract(src *Config) {
	c.checkPeer(src, false)
	defer c.flush()

	removed := false
	for a := range src.addresses.All() {
		removed = c.addresses.Remove(a.ID()) || removed
	}
	if removed {
		c.touch(ChangeAddresses)
	}

	for _, ns := range src.nameservers {
		c.delNameserver(ns)
	}

	if c.gateway == src.gateway || c.addresses.Len() == 0 {
		c.setGateway(netip.Addr{})
	}

	removed = false
	for r := range src.routes.All() {
		removed = c.routes.Remove(r.ID()) || removed
	}
	if removed {
		c.touch(ChangeRoutes)
	}

	for _, d := range src.domains {
		c.delDomain(d)
	}
	for _, s := range src.searches {
		c.delSearch(s)
	}
	for _, o := range src.dnsOptions {
		c.delDNSOption(o)
	}

	if c.mss == src.mss {
		c.mss = 0
	}
	if c.mtu == src.mtu && c.mtuSource == src.mtuSource {
		c.SetMTU(0, netobj.SourceUnknown)
	}

	for _, s := range src.nis {
		c.nis, _ = removeValue(c.nis, s)
	}
	if c.nisDomain == src.nisDomain {
		c.nisDomain = ""
	}
	for _, s := range src.wins {
		var ok bool
		if c.wins, ok = removeValue(c.wins, s); ok {
			c.touch(ChangeWINS)
		}
	}

	if c.dnsPriority == src.dnsPriority {
		c.setDNSPriority(0)
	}
}

// Intersect removes from c every address and route whose identity does not
// exist in src. The gateway is kept only when both agree on it and c still
// has addresses; all other fields are left alone.
func (c *Config) Intersect(src *Config) {
	c.checkPeer(src, false)
	defer c.flush()

	if c.addresses.RemoveFunc(func(a netobj.Address) bool { return !src.addresses.Contains(a) }) > 0 {
		c.touch(ChangeAddresses)
	}
	if c.addresses.Len() == 0 || c.gateway != src.gateway {
		c.setGateway(netip.Addr{})
	}
	if c.routes.RemoveFunc(func(r netobj.Route) bool { return !src.routes.Contains(r) }) > 0 {
		c.touch(ChangeRoutes)
	}
}

// Replace makes c carry the same content as src. It reports whether c
// changed at all and whether a change is relevant, that is visible in Hash.
// Interface index, never-default, route metric, DNS priority, MSS, MTU and
// metered are minor fields.
func (c *Config) Replace(src *Config) (changed, relevant bool) {
	c.checkPeer(src, false)
	defer c.flush()
	minor := false

	if c.setIfindex(src.ifindex) {
		minor = true
	}
	if c.neverDefault != src.neverDefault {
		c.neverDefault = src.neverDefault
		minor = true
	}
	if c.setGateway(src.gateway) {
		relevant = true
	}
	if c.routeMetric != src.routeMetric {
		c.routeMetric = src.routeMetric
		minor = true
	}

	if equal, rel := walkPairs(c.addresses, src.addresses, netobj.Address.SameContent); !equal {
		relevant = relevant || rel
		minor = true
		rebuild(c.addresses, src.addresses, c.ifindex, netobj.Address.WithIfindex)
		c.touch(ChangeAddresses)
	}
	if equal, rel := walkPairs(c.routes, src.routes, netobj.Route.SameContent); !equal {
		relevant = relevant || rel
		minor = true
		rebuild(c.routes, src.routes, c.ifindex, netobj.Route.WithIfindex)
		c.touch(ChangeRoutes)
	}

	if !slices.Equal(c.nameservers, src.nameservers) {
		c.nameservers = slices.Clone(src.nameservers)
		c.touch(ChangeNameservers)
		relevant = true
	}
	if !slices.Equal(c.domains, src.domains) {
		c.domains = slices.Clone(src.domains)
		c.touch(ChangeDomains)
		relevant = true
	}
	if !slices.Equal(c.searches, src.searches) {
		c.searches = slices.Clone(src.searches)
		c.touch(ChangeSearches)
		relevant = true
	}
	if !slices.Equal(c.dnsOptions, src.dnsOptions) {
		c.dnsOptions = slices.Clone(src.dnsOptions)
		c.touch(ChangeDNSOptions)
		relevant = true
	}
	if c.setDNSPriority(src.dnsPriority) {
		minor = true
	}
	if c.mss != src.mss {
		c.mss = src.mss
		minor = true
	}
	if !slices.Equal(c.nis, src.nis) {
		c.nis = slices.Clone(src.nis)
		relevant = true
	}
	if c.nisDomain != src.nisDomain {
		c.nisDomain = src.nisDomain
		relevant = true
	}
	if !slices.Equal(c.wins, src.wins) {
		c.wins = slices.Clone(src.wins)
		c.touch(ChangeWINS)
		relevant = true
	}
	if c.mtu != src.mtu || c.mtuSource != src.mtuSource {
		c.mtu, c.mtuSource = src.mtu, src.mtuSource
		minor = true
	}
	if c.metered != src.metered {
		c.metered = src.metered
		minor = true
	}

	metrics.Get().RecordReplace(c.Family().String(), minor || relevant, relevant)
	return minor || relevant, relevant
}

// walkPairs compares two partitions position by position. equal reports
// full equality; relevant reports a difference in length or in the content
// compared by same.
func walkPairs[K comparable, T comparable](dst, src *dedup.Partition[K, T], same func(a, b T) bool) (equal, relevant bool) {
	if dst.Len() != src.Len() {
		return false, true
	}
	a, b := dst.Objects(), src.Objects()
	equal = true
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		equal = false
		if !same(a[i], b[i]) {
			return false, true
		}
	}
	return equal, false
}

// rebuild makes dst hold exactly the objects of src in src's order, keeping
// the entries of identities that survive.
func rebuild[K comparable, T any](dst, src *dedup.Partition[K, T], ifindex int, restamp func(T, int) T) {
	dst.MarkDirty()
	for obj := range src.All() {
		dst.Add(restamp(obj, ifindex), false, true)
	}
	dst.DropDirty()
}
