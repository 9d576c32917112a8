package config

import (
	"fmt"
	"math"
	"net/netip"
	"sort"

	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// routeAttributeTypes maps every accepted route attribute to its type.
var routeAttributeTypes = map[string]cty.Type{
	"tos":           cty.Number,
	"window":        cty.Number,
	"cwnd":          cty.Number,
	"initcwnd":      cty.Number,
	"initrwnd":      cty.Number,
	"mtu":           cty.Number,
	"lock_window":   cty.Bool,
	"lock_cwnd":     cty.Bool,
	"lock_initcwnd": cty.Bool,
	"lock_initrwnd": cty.Bool,
	"lock_mtu":      cty.Bool,
	"src":           cty.String,
}

// RouteAttributeNames returns the accepted attribute keys, sorted.
func RouteAttributeNames() []string {
	names := make([]string, 0, len(routeAttributeTypes))
	for name := range routeAttributeTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r RouteEntry) attributeMap() (map[string]cty.Value, error) {
	v := r.Attributes
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	if t := v.Type(); !t.IsObjectType() && !t.IsMapType() {
		return nil, fmt.Errorf("route %s: attributes must be an object", r.Destination)
	}
	return v.AsValueMap(), nil
}

func numberAttr(v cty.Value, limit uint64) (uint64, error) {
	var n uint64
	if err := gocty.FromCtyValue(v, &n); err != nil {
		return 0, err
	}
	if n > limit {
		return 0, fmt.Errorf("value %d exceeds %d", n, limit)
	}
	return n, nil
}

// checkAttribute returns the converted value of one attribute.
func checkAttribute(name string, v cty.Value) (any, error) {
	want, ok := routeAttributeTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown attribute %q", name)
	}
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	if !v.Type().Equals(want) {
		return nil, fmt.Errorf("attribute %q must be a %s", name, want.FriendlyName())
	}

	if want.Equals(cty.Bool) {
		return v.True(), nil
	}
	if want.Equals(cty.String) {
		addr, err := netip.ParseAddr(v.AsString())
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		return addr, nil
	}

	limit := uint64(math.MaxUint32)
	if name == "tos" {
		limit = math.MaxUint8
	}
	n, err := numberAttr(v, limit)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return n, nil
}

// RouteAttributes converts the attributes object. It returns the typed
// attributes and the preferred source address (the "src" key). Attributes
// that fail type checks are skipped; Validate reports them.
func (r RouteEntry) RouteAttributes() (netobj.RouteAttributes, netip.Addr) {
	var attrs netobj.RouteAttributes
	var src netip.Addr

	m, err := r.attributeMap()
	if err != nil {
		return attrs, src
	}
	for name, v := range m {
		val, err := checkAttribute(name, v)
		if err != nil || val == nil {
			continue
		}
		switch name {
		case "tos":
			attrs.TOS = uint8(val.(uint64))
		case "window":
			attrs.Window = uint32(val.(uint64))
		case "cwnd":
			attrs.Cwnd = uint32(val.(uint64))
		case "initcwnd":
			attrs.InitCwnd = uint32(val.(uint64))
		case "initrwnd":
			attrs.InitRwnd = uint32(val.(uint64))
		case "mtu":
			attrs.MTU = uint32(val.(uint64))
		case "lock_window":
			attrs.LockWindow = val.(bool)
		case "lock_cwnd":
			attrs.LockCwnd = val.(bool)
		case "lock_initcwnd":
			attrs.LockInitCwnd = val.(bool)
		case "lock_initrwnd":
			attrs.LockInitRwnd = val.(bool)
		case "lock_mtu":
			attrs.LockMTU = val.(bool)
		case "src":
			src = val.(netip.Addr)
		}
	}
	return attrs, src
}

// attributeErrors reports every attribute that RouteAttributes would skip.
func (r RouteEntry) attributeErrors() []error {
	m, err := r.attributeMap()
	if err != nil {
		return []error{err}
	}
	var errs []error
	for _, name := range sortedKeys(m) {
		if _, err := checkAttribute(name, m[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// attributesValue renders attrs and src back into an HCL object.
func attributesValue(attrs netobj.RouteAttributes, src netip.Addr) cty.Value {
	m := map[string]cty.Value{}
	num := func(name string, v uint32) {
		if v != 0 {
			m[name] = cty.NumberUIntVal(uint64(v))
		}
	}
	flag := func(name string, v bool) {
		if v {
			m[name] = cty.True
		}
	}
	num("tos", uint32(attrs.TOS))
	num("window", attrs.Window)
	num("cwnd", attrs.Cwnd)
	num("initcwnd", attrs.InitCwnd)
	num("initrwnd", attrs.InitRwnd)
	num("mtu", attrs.MTU)
	flag("lock_window", attrs.LockWindow)
	flag("lock_cwnd", attrs.LockCwnd)
	flag("lock_initcwnd", attrs.LockInitCwnd)
	flag("lock_initrwnd", attrs.LockInitRwnd)
	flag("lock_mtu", attrs.LockMTU)
	if src.IsValid() {
		m["src"] = cty.StringVal(src.String())
	}
	if len(m) == 0 {
		return cty.NilVal
	}
	return cty.ObjectVal(m)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
