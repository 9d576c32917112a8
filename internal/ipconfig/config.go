package ipconfig

import (
	"fmt"
	"iter"
	"net/netip"
	"slices"
	"strings"

	"github.com/SailorOrion/NetworkManager/internal/dedup"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/google/uuid"
)

// Config is the IP configuration of one interface and one address family.
type Config struct {
	id      uuid.UUID
	idx     *Index
	ifindex int

	addresses *dedup.Partition[netobj.AddressID, netobj.Address]
	routes    *dedup.Partition[netobj.RouteID, netobj.Route]

	// gateway is valid when the config has a default gateway. A device
	// default route without next hop is recorded as the unspecified address.
	gateway      netip.Addr
	neverDefault bool
	routeMetric  int64

	nameservers []netip.Addr
	domains     []string
	searches    []string
	dnsOptions  []string
	dnsPriority int

	mss       uint32
	mtu       uint32
	mtuSource netobj.Source

	nis       []netip.Addr
	nisDomain string
	wins      []netip.Addr

	metered bool

	notifier    Notifier
	pending     ChangeSet
	addressData memo[[]AddressData]
	routeData   memo[[]RouteData]

	log *logging.Logger
}

// New creates an empty config for ifindex backed by idx.
func New(idx *Index, ifindex int) *Config {
	if ifindex <= 0 {
		panic(fmt.Sprintf("ipconfig: invalid ifindex %d", ifindex))
	}
	c := &Config{
		id:          uuid.New(),
		idx:         idx,
		ifindex:     ifindex,
		addresses:   idx.Addresses.NewPartition(ifindex),
		routes:      idx.Routes.NewPartition(ifindex),
		routeMetric: -1,
	}
	c.log = logging.WithComponent("ipconfig").WithFields(map[string]any{
		"family":  idx.Family.String(),
		"ifindex": ifindex,
	})
	idx.observe()
	return c
}

// ID returns the unique id of the config.
func (c *Config) ID() uuid.UUID { return c.id }

// Family returns the address family.
func (c *Config) Family() netobj.Family { return c.idx.Family }

// Index returns the shared store the config lives in.
func (c *Config) Index() *Index { return c.idx }

// Ifindex returns the interface index.
func (c *Config) Ifindex() int { return c.ifindex }

// SetNotifier installs the sink for change notifications.
func (c *Config) SetNotifier(n Notifier) { c.notifier = n }

// Release purges the config's objects from the shared index. The config
// must not be used afterwards.
func (c *Config) Release() {
	c.addresses.Release()
	c.routes.Release()
	c.idx.observe()
}

// SetIfindex moves the config and all of its objects to another interface.
func (c *Config) SetIfindex(ifindex int) {
	c.setIfindex(ifindex)
}

func (c *Config) setIfindex(ifindex int) bool {
	if ifindex == c.ifindex {
		return false
	}
	c.addresses.Rebind(ifindex, netobj.Address.WithIfindex)
	c.routes.Rebind(ifindex, netobj.Route.WithIfindex)
	c.ifindex = ifindex
	return true
}

func (c *Config) checkFamily(addr netip.Addr) {
	if !addr.IsValid() || netobj.FamilyOf(addr) != c.Family() {
		panic(fmt.Sprintf("ipconfig: %s is not an %s address", addr, c.Family()))
	}
}

func (c *Config) checkIPv4(what string) {
	if c.Family() != netobj.IPv4 {
		panic(fmt.Sprintf("ipconfig: %s are only defined for ipv4", what))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Addresses
// ──────────────────────────────────────────────────────────────────────────────

// AddAddress adds a or merges it into the address with the same identity.
func (c *Config) AddAddress(a netobj.Address) {
	defer c.flush()
	c.addAddress(a)
}

func (c *Config) addAddress(a netobj.Address) bool {
	if _, changed := c.addresses.Add(a.WithIfindex(c.ifindex), true, false); changed {
		c.touch(ChangeAddresses)
		return true
	}
	return false
}

// DelAddress removes the address with the identity of a.
func (c *Config) DelAddress(a netobj.Address) {
	defer c.flush()
	if c.addresses.Remove(a.ID()) {
		c.touch(ChangeAddresses)
	}
}

// ResetAddresses removes every address.
func (c *Config) ResetAddresses() {
	defer c.flush()
	c.resetAddresses()
}

func (c *Config) resetAddresses() {
	if c.addresses.Clear() > 0 {
		c.touch(ChangeAddresses)
	}
}

// Addresses returns the addresses in order.
func (c *Config) Addresses() []netobj.Address {
	return c.addresses.Objects()
}

// AllAddresses iterates the addresses in order.
func (c *Config) AllAddresses() iter.Seq[netobj.Address] {
	return c.addresses.All()
}

// NumAddresses returns the number of addresses.
func (c *Config) NumAddresses() int {
	return c.addresses.Len()
}

// FirstAddress returns the first address in order.
func (c *Config) FirstAddress() (netobj.Address, bool) {
	return c.addresses.First()
}

// AddressExists reports whether an address with the identity of a exists.
func (c *Config) AddressExists(a netobj.Address) bool {
	return c.addresses.Contains(a)
}

// LookupAddress returns the address with the identity of a.
func (c *Config) LookupAddress(a netobj.Address) (netobj.Address, bool) {
	return c.addresses.Lookup(a.ID())
}

// ──────────────────────────────────────────────────────────────────────────────
// Routes
// ──────────────────────────────────────────────────────────────────────────────

// AddRoute adds r, with host bits cleared, or merges it into the route with
// the same identity.
func (c *Config) AddRoute(r netobj.Route) {
	defer c.flush()
	c.addRoute(r)
}

func (c *Config) addRoute(r netobj.Route) bool {
	if _, changed := c.routes.Add(r.Normalize().WithIfindex(c.ifindex), true, false); changed {
		c.touch(ChangeRoutes)
		return true
	}
	return false
}

// DelRoute removes the route with the identity of r.
func (c *Config) DelRoute(r netobj.Route) {
	defer c.flush()
	if c.routes.Remove(r.ID()) {
		c.touch(ChangeRoutes)
	}
}

// ResetRoutes removes every route.
func (c *Config) ResetRoutes() {
	defer c.flush()
	c.resetRoutes()
}

func (c *Config) resetRoutes() {
	if c.routes.Clear() > 0 {
		c.touch(ChangeRoutes)
	}
}

// Routes returns the routes in order.
func (c *Config) Routes() []netobj.Route {
	return c.routes.Objects()
}

// AllRoutes iterates the routes in order.
func (c *Config) AllRoutes() iter.Seq[netobj.Route] {
	return c.routes.All()
}

// NumRoutes returns the number of routes.
func (c *Config) NumRoutes() int {
	return c.routes.Len()
}

// LookupRoute returns the route with the identity of r. With strict set the
// stored route must also agree on gateway and metric.
func (c *Config) LookupRoute(r netobj.Route, strict bool) (netobj.Route, bool) {
	stored, ok := c.routes.Lookup(r.ID())
	if !ok {
		return netobj.Route{}, false
	}
	if strict && stored.FullID() != r.Normalize().FullID() {
		return netobj.Route{}, false
	}
	return stored, true
}

// ──────────────────────────────────────────────────────────────────────────────
// Gateway and metrics
// ──────────────────────────────────────────────────────────────────────────────

// Gateway returns the default gateway.
func (c *Config) Gateway() (netip.Addr, bool) {
	return c.gateway, c.gateway.IsValid()
}

// SetGateway sets the default gateway. An unspecified address records a
// default route without next hop. IPv6 zones are dropped.
func (c *Config) SetGateway(gw netip.Addr) {
	defer c.flush()
	c.checkFamily(gw)
	c.setGateway(gw)
}

// UnsetGateway removes the default gateway.
func (c *Config) UnsetGateway() {
	defer c.flush()
	c.setGateway(netip.Addr{})
}

func (c *Config) setGateway(gw netip.Addr) bool {
	gw = gw.WithZone("")
	if c.gateway == gw {
		return false
	}
	c.gateway = gw
	c.touch(ChangeGateway)
	return true
}

// NeverDefault reports whether the config must never provide the default
// route.
func (c *Config) NeverDefault() bool { return c.neverDefault }

// SetNeverDefault sets the never-default flag.
func (c *Config) SetNeverDefault(v bool) { c.neverDefault = v }

// RouteMetric returns the metric of the default route, -1 when unset.
func (c *Config) RouteMetric() int64 { return c.routeMetric }

// SetRouteMetric sets the default route metric; negative values unset it.
func (c *Config) SetRouteMetric(metric int64) {
	if metric < 0 {
		metric = -1
	}
	c.routeMetric = metric
}

// MSS returns the TCP maximum segment size.
func (c *Config) MSS() uint32 { return c.mss }

// SetMSS sets the TCP maximum segment size.
func (c *Config) SetMSS(mss uint32) { c.mss = mss }

// MTU returns the interface MTU and the source that set it.
func (c *Config) MTU() (uint32, netobj.Source) { return c.mtu, c.mtuSource }

// SetMTU sets the interface MTU. Clearing the MTU also clears its source.
func (c *Config) SetMTU(mtu uint32, source netobj.Source) {
	if mtu == 0 {
		source = netobj.SourceUnknown
	}
	c.mtu = mtu
	c.mtuSource = source
}

// Metered reports whether the connection is metered.
func (c *Config) Metered() bool { return c.metered }

// SetMetered sets the metered flag.
func (c *Config) SetMetered(v bool) { c.metered = v }

// DNSPriority returns the DNS priority.
func (c *Config) DNSPriority() int { return c.dnsPriority }

// SetDNSPriority sets the DNS priority.
func (c *Config) SetDNSPriority(prio int) {
	defer c.flush()
	c.setDNSPriority(prio)
}

func (c *Config) setDNSPriority(prio int) bool {
	if c.dnsPriority == prio {
		return false
	}
	c.dnsPriority = prio
	c.touch(ChangeDNSPriority)
	return true
}

// ──────────────────────────────────────────────────────────────────────────────
// DNS
// ──────────────────────────────────────────────────────────────────────────────

// appendUnique appends v unless it is already present.
func appendUnique[T comparable](list []T, v T) ([]T, bool) {
	if slices.Contains(list, v) {
		return list, false
	}
	return append(list, v), true
}

// removeValue removes every occurrence of v.
func removeValue[T comparable](list []T, v T) ([]T, bool) {
	n := len(list)
	list = slices.DeleteFunc(list, func(x T) bool { return x == v })
	return list, len(list) != n
}

// Nameservers returns the nameservers in order.
func (c *Config) Nameservers() []netip.Addr { return slices.Clone(c.nameservers) }

// AddNameserver appends ns unless it is already present. IPv6 zones are
// dropped.
func (c *Config) AddNameserver(ns netip.Addr) {
	defer c.flush()
	c.addNameserver(ns)
}

func (c *Config) addNameserver(ns netip.Addr) bool {
	c.checkFamily(ns)
	var ok bool
	if c.nameservers, ok = appendUnique(c.nameservers, ns.WithZone("")); ok {
		c.touch(ChangeNameservers)
	}
	return ok
}

// DelNameserver removes ns.
func (c *Config) DelNameserver(ns netip.Addr) {
	defer c.flush()
	c.delNameserver(ns)
}

func (c *Config) delNameserver(ns netip.Addr) {
	var ok bool
	if c.nameservers, ok = removeValue(c.nameservers, ns.WithZone("")); ok {
		c.touch(ChangeNameservers)
	}
}

// ResetNameservers removes every nameserver.
func (c *Config) ResetNameservers() {
	defer c.flush()
	c.resetNameservers()
}

func (c *Config) resetNameservers() {
	if len(c.nameservers) > 0 {
		c.nameservers = nil
		c.touch(ChangeNameservers)
	}
}

// Domains returns the DNS domains in order.
func (c *Config) Domains() []string { return slices.Clone(c.domains) }

// AddDomain appends domain unless it is empty or already present.
func (c *Config) AddDomain(domain string) {
	defer c.flush()
	c.addDomain(domain)
}

func (c *Config) addDomain(domain string) {
	if domain == "" {
		return
	}
	var ok bool
	if c.domains, ok = appendUnique(c.domains, domain); ok {
		c.touch(ChangeDomains)
	}
}

// DelDomain removes domain.
func (c *Config) DelDomain(domain string) {
	defer c.flush()
	c.delDomain(domain)
}

func (c *Config) delDomain(domain string) {
	var ok bool
	if c.domains, ok = removeValue(c.domains, domain); ok {
		c.touch(ChangeDomains)
	}
}

// ResetDomains removes every domain.
func (c *Config) ResetDomains() {
	defer c.flush()
	c.resetDomains()
}

func (c *Config) resetDomains() {
	if len(c.domains) > 0 {
		c.domains = nil
		c.touch(ChangeDomains)
	}
}

// Searches returns the DNS search list in order.
func (c *Config) Searches() []string { return slices.Clone(c.searches) }

// AddSearch appends a search domain, without its trailing dot, unless it is
// empty or already present.
func (c *Config) AddSearch(search string) {
	defer c.flush()
	c.addSearch(search)
}

func (c *Config) addSearch(search string) {
	search = strings.TrimSuffix(search, ".")
	if search == "" {
		return
	}
	var ok bool
	if c.searches, ok = appendUnique(c.searches, search); ok {
		c.touch(ChangeSearches)
	}
}

// DelSearch removes search.
func (c *Config) DelSearch(search string) {
	defer c.flush()
	c.delSearch(search)
}

func (c *Config) delSearch(search string) {
	var ok bool
	if c.searches, ok = removeValue(c.searches, search); ok {
		c.touch(ChangeSearches)
	}
}

// ResetSearches removes every search domain.
func (c *Config) ResetSearches() {
	defer c.flush()
	c.resetSearches()
}

func (c *Config) resetSearches() {
	if len(c.searches) > 0 {
		c.searches = nil
		c.touch(ChangeSearches)
	}
}

// DNSOptions returns the resolver options in order.
func (c *Config) DNSOptions() []string { return slices.Clone(c.dnsOptions) }

// AddDNSOption appends opt unless it is empty or already present.
func (c *Config) AddDNSOption(opt string) {
	defer c.flush()
	c.addDNSOption(opt)
}

func (c *Config) addDNSOption(opt string) {
	if opt == "" {
		return
	}
	var ok bool
	if c.dnsOptions, ok = appendUnique(c.dnsOptions, opt); ok {
		c.touch(ChangeDNSOptions)
	}
}

// DelDNSOption removes opt.
func (c *Config) DelDNSOption(opt string) {
	defer c.flush()
	c.delDNSOption(opt)
}

func (c *Config) delDNSOption(opt string) {
	var ok bool
	if c.dnsOptions, ok = removeValue(c.dnsOptions, opt); ok {
		c.touch(ChangeDNSOptions)
	}
}

// ResetDNSOptions removes every resolver option.
func (c *Config) ResetDNSOptions() {
	defer c.flush()
	c.resetDNSOptions()
}

func (c *Config) resetDNSOptions() {
	if len(c.dnsOptions) > 0 {
		c.dnsOptions = nil
		c.touch(ChangeDNSOptions)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// NIS and WINS (IPv4 only)
// ──────────────────────────────────────────────────────────────────────────────

// NISServers returns the NIS servers in order.
func (c *Config) NISServers() []netip.Addr { return slices.Clone(c.nis) }

// AddNISServer appends a NIS server unless it is already present.
func (c *Config) AddNISServer(s netip.Addr) {
	c.checkIPv4("NIS servers")
	c.checkFamily(s)
	c.nis, _ = appendUnique(c.nis, s.WithZone(""))
}

// ResetNISServers removes every NIS server.
func (c *Config) ResetNISServers() { c.nis = nil }

// NISDomain returns the NIS domain.
func (c *Config) NISDomain() string { return c.nisDomain }

// SetNISDomain sets the NIS domain.
func (c *Config) SetNISDomain(domain string) {
	c.checkIPv4("NIS domains")
	c.nisDomain = domain
}

// WINS returns the WINS servers in order.
func (c *Config) WINS() []netip.Addr { return slices.Clone(c.wins) }

// AddWINS appends a WINS server unless it is already present.
func (c *Config) AddWINS(s netip.Addr) {
	defer c.flush()
	c.addWINS(s)
}

func (c *Config) addWINS(s netip.Addr) {
	c.checkIPv4("WINS servers")
	c.checkFamily(s)
	var ok bool
	if c.wins, ok = appendUnique(c.wins, s.WithZone("")); ok {
		c.touch(ChangeWINS)
	}
}

// ResetWINS removes every WINS server.
func (c *Config) ResetWINS() {
	defer c.flush()
	c.resetWINS()
}

func (c *Config) resetWINS() {
	if len(c.wins) > 0 {
		c.wins = nil
		c.touch(ChangeWINS)
	}
}
