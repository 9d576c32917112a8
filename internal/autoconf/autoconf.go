package autoconf

import (
	"errors"
	"math"
	"net"
	"net/netip"
	"time"

	"github.com/SailorOrion/NetworkManager/internal/clock"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"go4.org/netipx"
)

// ErrFamily is returned when an importer is given an index of the wrong
// address family.
var ErrFamily = errors.New("wrong address family")

// Options tune the objects an importer creates.
type Options struct {
	// RouteMetric is the metric of imported routes and of the default
	// route. Zero leaves the default route metric unset.
	RouteMetric uint32

	// Clock stamps lifetimes. Defaults to clock.Default.
	Clock clock.Clock
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.Default
	}
	return o.Clock
}

func logger() *logging.Logger { return logging.WithComponent("autoconf") }

// seconds converts a protocol lifetime to kernel seconds. Durations at or
// beyond the 32-bit range are permanent.
func seconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	s := d / time.Second
	if s >= math.MaxUint32 {
		return clock.Permanent
	}
	return uint32(s)
}

// stdAddrs converts addresses, dropping invalid and unspecified ones.
func stdAddrs(ips []net.IP) []netip.Addr {
	var out []netip.Addr
	for _, ip := range ips {
		addr, ok := netipx.FromStdIP(ip)
		if !ok || addr.IsUnspecified() {
			continue
		}
		out = append(out, addr)
	}
	return out
}
