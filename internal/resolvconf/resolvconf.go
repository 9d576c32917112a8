// Package resolvconf reads resolver configuration text in resolv.conf(5)
// format.
package resolvconf

import (
	"bufio"
	"bytes"
	"fmt"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// DefaultPath is the system resolver configuration.
const DefaultPath = "/etc/resolv.conf"

// Conf is the parsed content of a resolver configuration.
type Conf struct {
	Nameservers []netip.Addr
	Searches    []string
	Options     []string
}

// Parse extracts nameservers, search domains and options from contents.
// Nameservers that are not IP literals are dropped; options are kept only
// when ValidOption accepts them. Duplicates are removed, first wins.
func Parse(contents []byte) (*Conf, error) {
	cc, err := dns.ClientConfigFromReader(bytes.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse resolver configuration: %w", err)
	}

	c := &Conf{}
	for _, s := range cc.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			continue
		}
		if !slices.Contains(c.Nameservers, addr) {
			c.Nameservers = append(c.Nameservers, addr)
		}
	}
	for _, s := range cc.Search {
		s = strings.TrimSuffix(s, ".")
		if s != "" && !slices.Contains(c.Searches, s) {
			c.Searches = append(c.Searches, s)
		}
	}

	// ClientConfig only keeps the options it interprets itself.
	sc := bufio.NewScanner(bytes.NewReader(contents))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 2 || f[0] != "options" {
			continue
		}
		for _, opt := range f[1:] {
			if ValidOption(opt) && !slices.Contains(c.Options, opt) {
				c.Options = append(c.Options, opt)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolver options: %w", err)
	}
	return c, nil
}

// Load reads and parses the file at path (DefaultPath when empty).
func Load(path string) (*Conf, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// options maps every resolver option to whether it takes a numeric value.
var options = map[string]bool{
	"ndots":                 true,
	"timeout":               true,
	"attempts":              true,
	"debug":                 false,
	"rotate":                false,
	"no-check-names":        false,
	"inet6":                 false,
	"ip6-bytestring":        false,
	"ip6-dotint":            false,
	"no-ip6-dotint":         false,
	"edns0":                 false,
	"single-request":        false,
	"single-request-reopen": false,
	"no-tld-query":          false,
	"use-vc":                false,
	"no-reload":             false,
	"trust-ad":              false,
}

// ValidOption reports whether opt is a resolver option this system knows.
// Numeric options must be written as name:N with a non-negative N.
func ValidOption(opt string) bool {
	name, value, hasValue := strings.Cut(opt, ":")
	numeric, known := options[name]
	if !known || numeric != hasValue {
		return false
	}
	if !numeric {
		return true
	}
	_, err := strconv.ParseUint(value, 10, 32)
	return err == nil
}

// ValidSearch reports whether s is usable as a search domain.
func ValidSearch(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return false
	}
	_, ok := dns.IsDomainName(s)
	return ok
}
