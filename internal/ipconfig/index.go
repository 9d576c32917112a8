package ipconfig

import (
	"fmt"

	"github.com/SailorOrion/NetworkManager/internal/dedup"
	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

// Index is the dedup store shared by every Config of one address family.
type Index struct {
	Family    netobj.Family
	Addresses *dedup.Index[netobj.AddressID, netobj.Address]
	Routes    *dedup.Index[netobj.RouteID, netobj.Route]
}

// NewIndex creates the shared store for family.
func NewIndex(family netobj.Family) *Index {
	if !family.Valid() {
		panic(fmt.Sprintf("ipconfig: invalid family %d", family))
	}
	return &Index{
		Family:    family,
		Addresses: dedup.New[netobj.AddressID, netobj.Address](addressPolicy{family: family}),
		Routes:    dedup.New[netobj.RouteID, netobj.Route](routePolicy{family: family}),
	}
}

// observe publishes the index sizes. Called on create, capture, commit
// and release, not on every mutation.
func (idx *Index) observe() {
	m := metrics.Get()
	fam := idx.Family.String()
	m.IndexEntries.WithLabelValues(fam, "address").Set(float64(idx.Addresses.Len()))
	m.IndexEntries.WithLabelValues(fam, "route").Set(float64(idx.Routes.Len()))
	m.IndexPartitions.WithLabelValues(fam).Set(float64(idx.Addresses.Partitions()))
}

// addressPolicy implements merge precedence for addresses: the source rank
// never regresses, and lifetimes of the stored address are kept when a
// kernel observation follows a non-kernel one or when the stored address
// expires later.
type addressPolicy struct {
	family netobj.Family
}

func (p addressPolicy) Key(a netobj.Address) netobj.AddressID { return a.ID() }
func (p addressPolicy) Equal(a, b netobj.Address) bool        { return a == b }
func (p addressPolicy) Ifindex(a netobj.Address) int          { return a.Ifindex }

func (p addressPolicy) Valid(a netobj.Address) bool {
	return a.Addr.IsValid() && a.Family() == p.family && int(a.Plen) <= p.family.Bits()
}

func (p addressPolicy) Merge(stored, incoming netobj.Address) netobj.Address {
	if incoming.Source < stored.Source {
		incoming = incoming.WithSource(stored.Source)
	}
	if (incoming.Source == netobj.SourceKernel && stored.Source != netobj.SourceKernel) ||
		netobj.CompareExpiry(stored, incoming) > 0 {
		incoming = incoming.WithLifetimes(stored)
	}
	return incoming
}

// routePolicy keeps the highest source rank seen for a route.
type routePolicy struct {
	family netobj.Family
}

func (p routePolicy) Key(r netobj.Route) netobj.RouteID { return r.ID() }
func (p routePolicy) Equal(a, b netobj.Route) bool      { return a == b }
func (p routePolicy) Ifindex(r netobj.Route) int        { return r.Ifindex }

func (p routePolicy) Valid(r netobj.Route) bool {
	return r.Network.IsValid() && r.Family() == p.family && int(r.Plen) <= p.family.Bits()
}

func (p routePolicy) Merge(stored, incoming netobj.Route) netobj.Route {
	if incoming.Source < stored.Source {
		incoming = incoming.WithSource(stored.Source)
	}
	return incoming
}
