// Package netobj defines the network objects tracked by the ipconfig engine:
// IPv4/IPv6 addresses and routes, their provenance ranks and identity keys.
//
// Objects are plain values. They are shared between aggregates by copying, so
// a one-field update is done by building a patched copy (see the With*
// helpers) and substituting it, never by mutating a stored object.
package netobj

import (
	"fmt"
	"net/netip"
)

// Family is an address family.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// Bits returns the address length in bits.
func (f Family) Bits() int {
	if f == IPv6 {
		return 128
	}
	return 32
}

// Valid reports whether f is IPv4 or IPv6.
func (f Family) Valid() bool {
	return f == IPv4 || f == IPv6
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Any returns the unspecified address of the family.
func (f Family) Any() netip.Addr {
	if f == IPv6 {
		return netip.IPv6Unspecified()
	}
	return netip.IPv4Unspecified()
}

// FamilyOf returns the family of addr. The zero Addr is reported as IPv4.
// An IPv4-mapped address is IPv6: its prefix lengths count 128 bits.
func FamilyOf(addr netip.Addr) Family {
	if addr.Is6() {
		return IPv6
	}
	return IPv4
}

// Mask clears the host bits of addr beyond plen. Masking an already masked
// address returns it unchanged.
func Mask(addr netip.Addr, plen uint8) netip.Addr {
	if !addr.IsValid() {
		return addr
	}
	p, err := addr.Prefix(int(plen))
	if err != nil {
		panic(fmt.Sprintf("netobj: prefix length %d out of range for %s", plen, addr))
	}
	return p.Addr()
}

// orAny returns addr, or the family's unspecified address when addr is unset.
// Used wherever a fixed-width representation is required.
func orAny(addr netip.Addr, f Family) netip.Addr {
	if addr.IsValid() {
		return addr
	}
	return f.Any()
}

// Bytes returns the fixed-width byte form of addr for family f. An unset
// address yields all zero bytes.
func Bytes(addr netip.Addr, f Family) []byte {
	a := orAny(addr, f)
	if f == IPv4 {
		b := a.Unmap().As4()
		return b[:]
	}
	b := a.As16()
	return b[:]
}

// IsZeroNet reports whether an IPv4 network lies in 0.0.0.0/8, for which the
// kernel never installs device routes.
func IsZeroNet(network netip.Addr) bool {
	if !network.Is4() {
		return false
	}
	return network.As4()[0] == 0
}

// IsLinkLocal reports whether addr is link-local unicast (169.254/16 or
// fe80::/10).
func IsLinkLocal(addr netip.Addr) bool {
	return addr.IsLinkLocalUnicast()
}

func checkPlen(f Family, plen uint8) {
	if int(plen) > f.Bits() {
		panic(fmt.Sprintf("netobj: prefix length %d exceeds %d for %s", plen, f.Bits(), f))
	}
}
