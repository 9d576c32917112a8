package ipconfig

import (
	"cmp"
	"fmt"

	"github.com/SailorOrion/NetworkManager/internal/metrics"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/SailorOrion/NetworkManager/internal/resolvconf"
)

// CaptureOptions controls Capture.
type CaptureOptions struct {
	// ResolvConf adds nameservers and options from the resolver
	// configuration when the interface holds the default route.
	ResolvConf bool

	// ResolvContents is parsed instead of the file at ResolvPath when set.
	ResolvContents []byte

	// ResolvPath defaults to resolvconf.DefaultPath.
	ResolvPath string
}

// Capture builds a config from the kernel state of ifindex. It returns nil
// without error when the interface is enslaved to another device.
func Capture(idx *Index, plat Platform, ifindex int, opts CaptureOptions) (*Config, error) {
	c, err := capture(idx, plat, ifindex, opts)
	metrics.Get().RecordCapture(idx.Family.String(), c == nil && err == nil, err)
	idx.observe()
	return c, err
}

func capture(idx *Index, plat Platform, ifindex int, opts CaptureOptions) (*Config, error) {
	master, err := plat.LinkMaster(ifindex)
	if err != nil {
		return nil, fmt.Errorf("failed to get master of link %d: %w", ifindex, err)
	}
	if master > 0 {
		return nil, nil
	}

	addrs, err := plat.Addresses(idx.Family, ifindex)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses of link %d: %w", ifindex, err)
	}
	routes, err := plat.Routes(idx.Family, ifindex)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes of link %d: %w", ifindex, err)
	}

	c := New(idx, ifindex)
	defer c.flush()

	for _, a := range addrs {
		c.addresses.Add(a.WithIfindex(ifindex), false, true)
	}
	c.addresses.Sort(compareCaptured)
	if c.addresses.Len() > 0 {
		c.touch(ChangeAddresses)
	}

	var (
		gwRoute    netobj.Route
		hasGWRoute bool
	)
	for _, r := range routes {
		if !r.InMainTable() || r.Source == netobj.SourceRTProtKernel {
			continue
		}
		if r.IsDefault() {
			if !hasGWRoute || r.Metric < gwRoute.Metric {
				gwRoute, hasGWRoute = r, true
			}
			continue
		}
		c.addRoute(r)
	}
	if hasGWRoute {
		gw := gwRoute.Gateway
		if !gwRoute.HasGateway() {
			gw = idx.Family.Any()
		}
		c.setGateway(gw)
		c.routeMetric = int64(gwRoute.Metric)
	}

	if opts.ResolvConf && c.addresses.Len() > 0 && hasGWRoute {
		if c.captureResolvConf(opts) {
			c.log.Debug("captured resolver configuration", "nameservers", len(c.nameservers))
		}
	}

	c.log.Debug("captured", "addresses", c.addresses.Len(), "routes", c.routes.Len(), "gateway", c.gateway)
	return c, nil
}

// compareCaptured orders captured addresses: non link-local first, higher
// source first, labeled first, then by network, primaries before
// secondaries.
func compareCaptured(a, b netobj.Address) int {
	if al, bl := a.IsLinkLocal(), b.IsLinkLocal(); al != bl {
		if al {
			return 1
		}
		return -1
	}
	if a.Source != b.Source {
		return cmp.Compare(b.Source, a.Source)
	}
	if al, bl := a.Label != "", b.Label != ""; al != bl {
		if al {
			return -1
		}
		return 1
	}
	if c := netobj.Mask(a.Addr, a.Plen).Compare(netobj.Mask(b.Addr, b.Plen)); c != 0 {
		return c
	}
	if as, bs := a.IsSecondary(), b.IsSecondary(); as != bs {
		if as {
			return 1
		}
		return -1
	}
	return 0
}

// captureResolvConf appends nameservers and options of the config's family
// from the resolver configuration. It reports whether anything was added.
func (c *Config) captureResolvConf(opts CaptureOptions) bool {
	var (
		rc  *resolvconf.Conf
		err error
	)
	if opts.ResolvContents != nil {
		rc, err = resolvconf.Parse(opts.ResolvContents)
	} else {
		path := opts.ResolvPath
		if path == "" {
			path = resolvconf.DefaultPath
		}
		rc, err = resolvconf.Load(path)
	}
	if err != nil {
		c.log.Warn("failed to read resolver configuration", "error", err)
		return false
	}

	changed := false
	for _, ns := range rc.Nameservers {
		if netobj.FamilyOf(ns) != c.Family() || ns.IsUnspecified() {
			continue
		}
		if c.addNameserver(ns) {
			changed = true
		}
	}
	for _, opt := range rc.Options {
		if !resolvconf.ValidOption(opt) {
			continue
		}
		n := len(c.dnsOptions)
		c.addDNSOption(opt)
		changed = changed || len(c.dnsOptions) != n
	}
	return changed
}
