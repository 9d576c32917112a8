package config

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
default_route_metric = 100
capture_resolv_conf  = true
resolv_conf          = "/run/resolv.conf"
log_level            = "debug"

connection "uplink" {
  interface = "eth0"

  ipv4 {
    method       = "manual"
    gateway      = "192.0.2.1"
    route_metric = 50
    dns          = ["192.0.2.53", "192.0.2.54"]
    dns_search   = ["example.com"]
    dns_options  = ["rotate", "ndots:2"]
    dns_priority = 10

    address "192.0.2.10/24" {
      label = "eth0:srv"
    }

    route "198.51.100.0/24" {
      next_hop   = "192.0.2.254"
      metric     = 20
      attributes = { mtu = 1400, lock_mtu = true, tos = 16, src = "192.0.2.10" }
    }

    route "203.0.113.7" {}
  }

  ipv6 {
    method = "auto"
    ignore_auto_dns = true
  }
}
`

func TestLoad_Sample(t *testing.T) {
	cfg, err := Load("test.hcl", []byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, uint32(100), cfg.DefaultRouteMetric)
	assert.True(t, cfg.CaptureResolvConf)
	assert.Equal(t, "/run/resolv.conf", cfg.ResolvConf)

	conn, ok := cfg.FindConnection("uplink")
	require.True(t, ok)
	assert.Equal(t, "eth0", conn.Interface)

	p := conn.Profile(netobj.IPv4)
	require.NotNil(t, p)
	assert.Equal(t, MethodManual, p.Method)
	assert.Equal(t, int64(50), p.RouteMetricValue())
	assert.Equal(t, []string{"192.0.2.53", "192.0.2.54"}, p.DNS)
	assert.Equal(t, 10, p.DNSPriority)
	require.Len(t, p.Addresses, 1)
	assert.Equal(t, "eth0:srv", p.Addresses[0].Label)

	gw, ok, err := p.GatewayAddr()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), gw)

	require.Len(t, p.Routes, 2)
	assert.Equal(t, int64(20), p.Routes[0].MetricValue())
	assert.Equal(t, int64(-1), p.Routes[1].MetricValue())

	host, err := p.Routes[1].Prefix()
	require.NoError(t, err)
	assert.Equal(t, 32, host.Bits())

	v6 := conn.Profile(netobj.IPv6)
	require.NotNil(t, v6)
	assert.True(t, v6.IgnoreAutoDNS)
	assert.Equal(t, int64(-1), v6.RouteMetricValue())

	_, ok = cfg.FindConnection("missing")
	assert.False(t, ok)
}

func TestRouteAttributes(t *testing.T) {
	cfg, err := Load("test.hcl", []byte(sampleConfig))
	require.NoError(t, err)
	p := cfg.Connections[0].IPv4

	attrs, src := p.Routes[0].RouteAttributes()
	assert.Equal(t, netobj.RouteAttributes{MTU: 1400, LockMTU: true, TOS: 16}, attrs)
	assert.Equal(t, netip.MustParseAddr("192.0.2.10"), src)

	attrs, src = p.Routes[1].RouteAttributes()
	assert.Equal(t, netobj.RouteAttributes{}, attrs)
	assert.False(t, src.IsValid())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "wrong family address",
			src:   `connection "a" { interface = "eth0" ipv4 { address "2001:db8::1/64" {} } }`,
			field: "connection.a.ipv4.address[2001:db8::1/64]",
		},
		{
			name:  "mapped address in ipv4",
			src:   `connection "a" { interface = "eth0" ipv4 { address "::ffff:192.0.2.5/120" {} } }`,
			field: "connection.a.ipv4.address[::ffff:192.0.2.5/120]",
		},
		{
			name:  "mapped route in ipv4",
			src:   `connection "a" { interface = "eth0" ipv4 { route "::ffff:198.51.100.0/120" {} } }`,
			field: "connection.a.ipv4.route[::ffff:198.51.100.0/120]",
		},
		{
			name:  "mapped gateway in ipv4",
			src:   `connection "a" { interface = "eth0" ipv4 { gateway = "::ffff:192.0.2.1" } }`,
			field: "connection.a.ipv4.gateway",
		},
		{
			name:  "manual without addresses",
			src:   `connection "a" { interface = "eth0" ipv4 { method = "manual" } }`,
			field: "connection.a.ipv4.method",
		},
		{
			name:  "bad attribute type",
			src:   `connection "a" { interface = "eth0" ipv4 { route "10.0.0.0/8" { attributes = { mtu = "big" } } } }`,
			field: "connection.a.ipv4.route[10.0.0.0/8].attributes",
		},
		{
			name:  "unknown attribute",
			src:   `connection "a" { interface = "eth0" ipv4 { route "10.0.0.0/8" { attributes = { hops = 1 } } } }`,
			field: "connection.a.ipv4.route[10.0.0.0/8].attributes",
		},
		{
			name:  "tos out of range",
			src:   `connection "a" { interface = "eth0" ipv4 { route "10.0.0.0/8" { attributes = { tos = 300 } } } }`,
			field: "connection.a.ipv4.route[10.0.0.0/8].attributes",
		},
		{
			name:  "bad dns option",
			src:   `connection "a" { interface = "eth0" ipv6 { dns_options = ["ndots"] } }`,
			field: "connection.a.ipv6.dns_options",
		},
		{
			name:  "bad search",
			src:   `connection "a" { interface = "eth0" ipv6 { dns_search = ["a..b"] } }`,
			field: "connection.a.ipv6.dns_search",
		},
		{
			name:  "duplicate connection",
			src:   `connection "a" { interface = "eth0" } ` + "\n" + `connection "a" { interface = "eth1" }`,
			field: "connection.a",
		},
		{
			name:  "bad log level",
			src:   `log_level = "loud"`,
			field: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("test.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			fields := make([]string, 0, len(verrs))
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	_, err := Load("test.hcl", []byte(`connection "a" {`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}

func TestRouteAttributeNames(t *testing.T) {
	names := RouteAttributeNames()
	assert.Len(t, names, 12)
	assert.Contains(t, names, "lock_initrwnd")
	assert.IsIncreasing(t, names)
}
