package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/SailorOrion/NetworkManager/internal/resolvconf"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

func (e *ValidationErrors) add(field, format string, args ...any) {
	*e = append(*e, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the whole configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.add("log_level", "%v", err)
	}

	seen := make(map[string]bool)
	for _, conn := range c.Connections {
		field := fmt.Sprintf("connection.%s", conn.Name)
		if conn.Name == "" {
			errs.add("connection", "name must not be empty")
		}
		if seen[conn.Name] {
			errs.add(field, "duplicate connection")
		}
		seen[conn.Name] = true

		if conn.Interface == "" {
			errs.add(field+".interface", "must not be empty")
		}
		if conn.IPv4 != nil {
			errs = append(errs, conn.IPv4.Validate(netobj.IPv4, field+".ipv4")...)
		}
		if conn.IPv6 != nil {
			errs = append(errs, conn.IPv6.Validate(netobj.IPv6, field+".ipv6")...)
		}
	}
	return errs
}

// Validate checks a profile of the given family. Field names in the result
// are prefixed with field.
func (p *IPProfile) Validate(family netobj.Family, field string) ValidationErrors {
	var errs ValidationErrors

	switch p.Method {
	case "", MethodAuto, MethodManual, MethodDisabled:
	default:
		errs.add(field+".method", "unknown method %q", p.Method)
	}
	if p.Method == MethodManual && len(p.Addresses) == 0 {
		errs.add(field+".method", "manual method requires at least one address")
	}

	for _, a := range p.Addresses {
		f := fmt.Sprintf("%s.address[%s]", field, a.Address)
		prefix, err := a.Prefix()
		if err != nil {
			errs.add(f, "%v", err)
			continue
		}
		if netobj.FamilyOf(prefix.Addr()) != family {
			errs.add(f, "not an %s address", family)
		}
	}

	if gw, ok, err := p.GatewayAddr(); err != nil {
		errs.add(field+".gateway", "%v", err)
	} else if ok && netobj.FamilyOf(gw) != family {
		errs.add(field+".gateway", "not an %s address", family)
	}

	for _, r := range p.Routes {
		f := fmt.Sprintf("%s.route[%s]", field, r.Destination)
		prefix, err := r.Prefix()
		if err != nil {
			errs.add(f, "%v", err)
			continue
		}
		if netobj.FamilyOf(prefix.Addr()) != family {
			errs.add(f, "not an %s destination", family)
		}
		if nh, err := r.NextHopAddr(); err != nil {
			errs.add(f+".next_hop", "%v", err)
		} else if nh.IsValid() && netobj.FamilyOf(nh) != family {
			errs.add(f+".next_hop", "not an %s address", family)
		}
		if r.Metric != nil && (*r.Metric < -1 || *r.Metric > int64(^uint32(0))) {
			errs.add(f+".metric", "out of range")
		}
		for _, err := range r.attributeErrors() {
			errs.add(f+".attributes", "%v", err)
		}
	}

	for _, s := range p.DNS {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			errs.add(field+".dns", "invalid nameserver %q", s)
		} else if netobj.FamilyOf(addr) != family {
			errs.add(field+".dns", "nameserver %s is not an %s address", s, family)
		}
	}
	for _, s := range p.DNSSearch {
		if !resolvconf.ValidSearch(s) {
			errs.add(field+".dns_search", "invalid search domain %q", s)
		}
	}
	for _, o := range p.DNSOptions {
		if !resolvconf.ValidOption(o) {
			errs.add(field+".dns_options", "unknown option %q", o)
		}
	}
	return errs
}
