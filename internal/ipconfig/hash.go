package ipconfig

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"hash"
	"io"
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
)

// hasher writes fixed-width values into a digest.
type hasher struct {
	h   hash.Hash
	fam netobj.Family
	buf [4]byte
}

func (w *hasher) u32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[:], v)
	w.h.Write(w.buf[:])
}

func (w *hasher) flag(v bool) {
	if v {
		w.u32(1)
	} else {
		w.u32(0)
	}
}

func (w *hasher) addr(a netip.Addr) {
	w.h.Write(netobj.Bytes(a, w.fam))
}

func (w *hasher) addrs(list []netip.Addr) {
	w.u32(uint32(len(list)))
	for _, a := range list {
		w.addr(a)
	}
}

func (w *hasher) strings(list []string) {
	w.u32(uint32(len(list)))
	for _, s := range list {
		w.u32(uint32(len(s)))
		io.WriteString(w.h, s)
	}
}

// Hash returns the SHA-1 digest of the content of c. Lifetimes, timestamps
// and sources never take part. With dnsOnly set only nameservers, WINS,
// domains, searches and options are hashed. A nil config hashes as empty
// input.
func (c *Config) Hash(dnsOnly bool) []byte {
	w := &hasher{h: sha1.New()}
	if c == nil {
		return w.h.Sum(nil)
	}
	w.fam = c.Family()

	if !dnsOnly {
		w.flag(c.gateway.IsValid())
		w.addr(c.gateway)

		w.u32(uint32(c.addresses.Len()))
		for a := range c.addresses.All() {
			w.addr(a.Addr)
			w.u32(uint32(a.Plen))
			w.addr(a.PeerNetwork())
		}

		w.u32(uint32(c.routes.Len()))
		for r := range c.routes.All() {
			w.addr(r.Network)
			w.u32(uint32(r.Plen))
			w.addr(r.Gateway)
			w.u32(r.Metric)
		}

		w.addrs(c.nis)
		w.strings([]string{c.nisDomain})
	}

	w.addrs(c.nameservers)
	w.addrs(c.wins)
	w.strings(c.domains)
	w.strings(c.searches)
	w.strings(c.dnsOptions)
	return w.h.Sum(nil)
}

// Equal reports whether a and b have the same content as seen by Hash.
func Equal(a, b *Config) bool {
	return bytes.Equal(a.Hash(false), b.Hash(false))
}
