package ipconfig

import (
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/config"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/SailorOrion/NetworkManager/internal/resolvconf"
)

// MergeSetting applies a static profile on top of c. Entries that do not
// parse, or belong to the other family, are skipped; config.Validate
// reports them. A nil profile is a no-op.
func (c *Config) MergeSetting(p *config.IPProfile, defaultRouteMetric uint32) {
	if p == nil {
		return
	}
	defer c.flush()
	fam := c.Family()

	if p.NeverDefault {
		c.neverDefault = true
	} else if p.IgnoreAutoRoutes {
		c.neverDefault = false
	}
	if gw, ok, err := p.GatewayAddr(); err == nil && ok && netobj.FamilyOf(gw) == fam {
		c.setGateway(gw)
	}
	if c.routeMetric == -1 {
		c.routeMetric = p.RouteMetricValue()
	}

	for _, entry := range p.Addresses {
		prefix, err := entry.Prefix()
		if err != nil || netobj.FamilyOf(prefix.Addr()) != fam {
			continue
		}
		a := netobj.Address{
			Addr:      prefix.Addr(),
			Plen:      uint8(prefix.Bits()),
			Label:     entry.Label,
			Lifetime:  netobj.LifetimePermanent,
			Preferred: netobj.LifetimePermanent,
			Source:    netobj.SourceUser,
		}
		if fam == netobj.IPv4 {
			a.Peer = a.Addr
		}
		c.addAddress(a)
	}

	if p.IgnoreAutoRoutes {
		c.resetRoutes()
	}
	for _, entry := range p.Routes {
		prefix, err := entry.Prefix()
		if err != nil || prefix.Bits() == 0 || netobj.FamilyOf(prefix.Addr()) != fam {
			continue
		}
		nh, err := entry.NextHopAddr()
		if err != nil || (nh.IsValid() && netobj.FamilyOf(nh) != fam) {
			continue
		}
		metric := defaultRouteMetric
		if m := entry.MetricValue(); m >= 0 {
			metric = uint32(m)
		}
		attrs, src := entry.RouteAttributes()
		if src.IsValid() && netobj.FamilyOf(src) != fam {
			src = netip.Addr{}
		}
		c.addRoute(netobj.Route{
			Network: prefix.Masked().Addr(),
			Plen:    uint8(prefix.Bits()),
			Gateway: nh,
			Metric:  metric,
			Source:  netobj.SourceUser,
			PrefSrc: src,
			Attrs:   attrs,
		})
	}

	if p.IgnoreAutoDNS {
		c.resetNameservers()
		c.resetDomains()
		c.resetSearches()
	}
	for _, s := range p.DNS {
		ns, err := netip.ParseAddr(s)
		if err != nil || netobj.FamilyOf(ns) != fam {
			continue
		}
		c.addNameserver(ns)
	}
	for _, s := range p.DNSSearch {
		c.addSearch(s)
	}
	for _, opt := range p.DNSOptions {
		if resolvconf.ValidOption(opt) {
			c.addDNSOption(opt)
		}
	}

	if p.DNSPriority != 0 {
		c.setDNSPriority(p.DNSPriority)
	}
}

// CreateSetting derives a static profile from c. Addresses with a finite
// lifetime make the method auto and are left out; only routes a user
// configured are kept. A nil config yields a disabled profile.
func (c *Config) CreateSetting() *config.IPProfile {
	p := &config.IPProfile{}
	if c == nil {
		p.Method = config.MethodDisabled
		return p
	}

	for a := range c.addresses.All() {
		if a.Lifetime != netobj.LifetimePermanent {
			p.Method = config.MethodAuto
			continue
		}
		if p.Method == "" {
			p.Method = config.MethodManual
		}
		p.Addresses = append(p.Addresses, config.AddressEntry{
			Address: a.Prefix().String(),
			Label:   a.Label,
		})
	}
	if p.Method == "" {
		p.Method = config.MethodDisabled
	}

	if gw, ok := c.Gateway(); ok && len(p.Addresses) > 0 {
		p.Gateway = gw.String()
	}
	if c.routeMetric >= 0 {
		metric := c.routeMetric
		p.RouteMetric = &metric
	}

	userRTProt := netobj.SourceFromRTProt(netobj.SourceUser.RTProt())
	for r := range c.routes.All() {
		if r.IsDefault() || (r.Source != netobj.SourceUser && r.Source != userRTProt) {
			continue
		}
		metric := int64(r.Metric)
		entry := config.RouteEntry{
			Destination: r.Prefix().String(),
			Metric:      &metric,
			Attributes:  config.RouteAttributesValue(r),
		}
		if r.HasGateway() {
			entry.NextHop = r.Gateway.String()
		}
		p.Routes = append(p.Routes, entry)
	}

	for _, ns := range c.nameservers {
		p.DNS = append(p.DNS, ns.String())
	}
	p.DNSSearch = c.Searches()
	p.DNSOptions = c.DNSOptions()
	p.DNSPriority = c.dnsPriority
	return p
}
