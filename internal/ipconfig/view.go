package ipconfig

// memo caches a derived value until reset.
type memo[T any] struct {
	valid bool
	val   T
}

func (m *memo[T]) get(compute func() T) T {
	if !m.valid {
		m.val = compute()
		m.valid = true
	}
	return m.val
}

func (m *memo[T]) reset() {
	var zero T
	m.val = zero
	m.valid = false
}

// AddressData is the external view of one address.
type AddressData struct {
	Address string `yaml:"address" json:"address"`
	Prefix  int    `yaml:"prefix" json:"prefix"`
	Peer    string `yaml:"peer,omitempty" json:"peer,omitempty"`
	Label   string `yaml:"label,omitempty" json:"label,omitempty"`
	Source  string `yaml:"source" json:"source"`
}

// RouteData is the external view of one route.
type RouteData struct {
	Dest    string `yaml:"dest" json:"dest"`
	Prefix  int    `yaml:"prefix" json:"prefix"`
	NextHop string `yaml:"next-hop,omitempty" json:"next-hop,omitempty"`
	Metric  uint32 `yaml:"metric" json:"metric"`
	Source  string `yaml:"source" json:"source"`
	PrefSrc string `yaml:"src,omitempty" json:"src,omitempty"`
	MTU     uint32 `yaml:"mtu,omitempty" json:"mtu,omitempty"`
}

// AddressData returns the view of all addresses. The slice is shared
// between calls until the addresses change and must not be modified.
func (c *Config) AddressData() []AddressData {
	return c.addressData.get(func() []AddressData {
		out := make([]AddressData, 0, c.addresses.Len())
		for a := range c.addresses.All() {
			d := AddressData{
				Address: a.Addr.String(),
				Prefix:  int(a.Plen),
				Label:   a.Label,
				Source:  a.Source.String(),
			}
			if a.Peer.IsValid() && a.Peer != a.Addr {
				d.Peer = a.Peer.String()
			}
			out = append(out, d)
		}
		return out
	})
}

// RouteData returns the view of all routes. The slice is shared between
// calls until the routes change and must not be modified.
func (c *Config) RouteData() []RouteData {
	return c.routeData.get(func() []RouteData {
		out := make([]RouteData, 0, c.routes.Len())
		for r := range c.routes.All() {
			d := RouteData{
				Dest:   r.Prefix().Addr().String(),
				Prefix: int(r.Plen),
				Metric: r.Metric,
				Source: r.Source.String(),
				MTU:    r.Attrs.MTU,
			}
			if r.HasGateway() {
				d.NextHop = r.Gateway.String()
			}
			if r.PrefSrc.IsValid() {
				d.PrefSrc = r.PrefSrc.String()
			}
			out = append(out, d)
		}
		return out
	})
}
