package config

import (
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// RenderProfile returns the HCL source of p as an ipv4/ipv6 block.
func RenderProfile(family netobj.Family, p *IPProfile) []byte {
	f := hclwrite.NewEmptyFile()
	writeProfile(f.Body().AppendNewBlock(profileBlockName(family), nil).Body(), p)
	return f.Bytes()
}

// writeProfile fills body with the attributes and blocks of p.
func writeProfile(body *hclwrite.Body, p *IPProfile) {
	if p.Method != "" {
		body.SetAttributeValue("method", cty.StringVal(p.Method))
	}
	if p.Gateway != "" {
		body.SetAttributeValue("gateway", cty.StringVal(p.Gateway))
	}
	if p.RouteMetric != nil {
		body.SetAttributeValue("route_metric", cty.NumberIntVal(*p.RouteMetric))
	}
	if p.NeverDefault {
		body.SetAttributeValue("never_default", cty.True)
	}
	if p.IgnoreAutoRoutes {
		body.SetAttributeValue("ignore_auto_routes", cty.True)
	}
	if p.IgnoreAutoDNS {
		body.SetAttributeValue("ignore_auto_dns", cty.True)
	}
	if len(p.DNS) > 0 {
		body.SetAttributeValue("dns", stringList(p.DNS))
	}
	if len(p.DNSSearch) > 0 {
		body.SetAttributeValue("dns_search", stringList(p.DNSSearch))
	}
	if len(p.DNSOptions) > 0 {
		body.SetAttributeValue("dns_options", stringList(p.DNSOptions))
	}
	if p.DNSPriority != 0 {
		body.SetAttributeValue("dns_priority", cty.NumberIntVal(int64(p.DNSPriority)))
	}

	for _, a := range p.Addresses {
		b := body.AppendNewBlock("address", []string{a.Address}).Body()
		if a.Label != "" {
			b.SetAttributeValue("label", cty.StringVal(a.Label))
		}
	}

	for _, r := range p.Routes {
		b := body.AppendNewBlock("route", []string{r.Destination}).Body()
		if r.NextHop != "" {
			b.SetAttributeValue("next_hop", cty.StringVal(r.NextHop))
		}
		if r.Metric != nil {
			b.SetAttributeValue("metric", cty.NumberIntVal(*r.Metric))
		}
		if !r.Attributes.IsNull() && r.Attributes.IsWhollyKnown() {
			b.SetAttributeValue("attributes", r.Attributes)
		}
	}
}

// RouteAttributesValue builds the attributes object of a route entry from
// the typed attributes and preferred source of r.
func RouteAttributesValue(r netobj.Route) cty.Value {
	return attributesValue(r.Attrs, r.PrefSrc)
}

func stringList(list []string) cty.Value {
	vals := make([]cty.Value, len(list))
	for i, s := range list {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}
