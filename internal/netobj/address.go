package netobj

import (
	"fmt"
	"math"
	"net/netip"
	"strings"
)

// LifetimePermanent marks an address lifetime that never expires.
const LifetimePermanent uint32 = math.MaxUint32

// AddressFlagSecondary mirrors IFA_F_SECONDARY.
const AddressFlagSecondary uint32 = 0x01

// Address is an IPv4 or IPv6 address assigned to an interface.
//
// Timestamp is the time in seconds (monotonic base of the capturing clock)
// at which Lifetime and Preferred were last valid.
type Address struct {
	Ifindex   int
	Addr      netip.Addr
	Plen      uint8
	Peer      netip.Addr
	Label     string
	Timestamp int64
	Lifetime  uint32
	Preferred uint32
	Source    Source
	Flags     uint32
}

// AddressID is the identity of an address inside one partition.
type AddressID struct {
	Addr    netip.Addr
	Plen    uint8
	PeerNet netip.Addr
}

// Family returns the address family.
func (a Address) Family() Family {
	return FamilyOf(a.Addr)
}

// Validate panics when the prefix length is out of range for the family.
func (a Address) Validate() {
	checkPlen(a.Family(), a.Plen)
}

// PeerOrAddr returns the peer address, or the local address when no peer is
// set.
func (a Address) PeerOrAddr() netip.Addr {
	if a.Peer.IsValid() {
		return a.Peer
	}
	return a.Addr
}

// PeerNetwork is the peer address with host bits cleared.
func (a Address) PeerNetwork() netip.Addr {
	return Mask(a.PeerOrAddr(), a.Plen)
}

// ID returns the identity key. IPv4 addresses are identified by address,
// prefix length and masked peer; IPv6 addresses by the address alone.
func (a Address) ID() AddressID {
	if a.Family() == IPv6 {
		return AddressID{Addr: a.Addr}
	}
	return AddressID{Addr: a.Addr, Plen: a.Plen, PeerNet: a.PeerNetwork()}
}

// SameContent reports whether a and b agree on every field that takes part
// in configuration hashing: address, prefix length and masked peer.
func (a Address) SameContent(b Address) bool {
	return a.Addr == b.Addr && a.Plen == b.Plen && a.PeerNetwork() == b.PeerNetwork()
}

// IsLinkLocal reports whether the address is link-local.
func (a Address) IsLinkLocal() bool {
	return IsLinkLocal(a.Addr)
}

// IsSecondary reports whether the kernel flagged the address as secondary.
func (a Address) IsSecondary() bool {
	return a.Flags&AddressFlagSecondary != 0
}

// Prefix returns the address with its prefix length.
func (a Address) Prefix() netip.Prefix {
	return netip.PrefixFrom(a.Addr, int(a.Plen))
}

// WithIfindex returns a copy bound to ifindex.
func (a Address) WithIfindex(ifindex int) Address {
	a.Ifindex = ifindex
	return a
}

// WithSource returns a copy with the given source rank.
func (a Address) WithSource(s Source) Address {
	a.Source = s
	return a
}

// WithLifetimes returns a copy carrying the timestamp and lifetimes of from.
func (a Address) WithLifetimes(from Address) Address {
	a.Timestamp = from.Timestamp
	a.Lifetime = from.Lifetime
	a.Preferred = from.Preferred
	return a
}

// expiry returns the absolute expiry in seconds, math.MaxInt64 when the
// address never expires.
func (a Address) expiry() int64 {
	if a.Lifetime == 0 || a.Lifetime == LifetimePermanent {
		return math.MaxInt64
	}
	return a.Timestamp + int64(a.Lifetime)
}

// CompareExpiry orders a and b by expiry; it returns a positive value when a
// lives longer than b.
func CompareExpiry(a, b Address) int {
	ea, eb := a.expiry(), b.expiry()
	switch {
	case ea < eb:
		return -1
	case ea > eb:
		return 1
	default:
		return 0
	}
}

func lifetimeString(v uint32) string {
	if v == LifetimePermanent {
		return "forever"
	}
	return fmt.Sprintf("%dsec", v)
}

func (a Address) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d", a.Addr, a.Plen)
	if a.Peer.IsValid() && a.Peer != a.Addr {
		fmt.Fprintf(&b, " ptp %s", a.Peer)
	}
	fmt.Fprintf(&b, " lft %s pref %s lifetime %d", lifetimeString(a.Lifetime), lifetimeString(a.Preferred), a.Timestamp)
	if a.Ifindex > 0 {
		fmt.Fprintf(&b, " dev %d", a.Ifindex)
	}
	if a.Label != "" {
		fmt.Fprintf(&b, " label %s", a.Label)
	}
	if a.IsSecondary() {
		b.WriteString(" secondary")
	}
	fmt.Fprintf(&b, " src %s", a.Source)
	return b.String()
}
