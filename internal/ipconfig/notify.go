package ipconfig

import (
	"math/bits"
	"strings"

	"github.com/SailorOrion/NetworkManager/internal/events"
	"github.com/SailorOrion/NetworkManager/internal/metrics"
)

// ChangeSet is a set of field groups changed by an operation.
type ChangeSet uint16

// Field groups.
const (
	ChangeAddresses ChangeSet = 1 << iota
	ChangeRoutes
	ChangeGateway
	ChangeNameservers
	ChangeDomains
	ChangeSearches
	ChangeDNSOptions
	ChangeWINS
	ChangeDNSPriority
)

var changeNames = []string{
	"addresses",
	"routes",
	"gateway",
	"nameservers",
	"domains",
	"searches",
	"dns-options",
	"wins",
	"dns-priority",
}

// Has reports whether every group of g is in s.
func (s ChangeSet) Has(g ChangeSet) bool {
	return s&g == g
}

// Groups splits s into single-group sets in declaration order.
func (s ChangeSet) Groups() []ChangeSet {
	out := make([]ChangeSet, 0, bits.OnesCount16(uint16(s)))
	for i := range changeNames {
		if g := ChangeSet(1) << i; s&g != 0 {
			out = append(out, g)
		}
	}
	return out
}

func (s ChangeSet) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for i, n := range changeNames {
		if s&(ChangeSet(1)<<i) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, ",")
}

// Notifier receives change notifications. Notify is called once per changed
// group, with group holding a single bit.
type Notifier interface {
	Notify(c *Config, group ChangeSet)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(c *Config, group ChangeSet)

func (f NotifierFunc) Notify(c *Config, group ChangeSet) { f(c, group) }

// HubNotifier publishes changes as config.* events on an event hub.
type HubNotifier struct {
	Hub *events.Hub
}

var groupEvents = map[ChangeSet]events.EventType{
	ChangeAddresses:   events.EventAddresses,
	ChangeRoutes:      events.EventRoutes,
	ChangeGateway:     events.EventGateway,
	ChangeNameservers: events.EventNameservers,
	ChangeDomains:     events.EventDomains,
	ChangeSearches:    events.EventSearches,
	ChangeDNSOptions:  events.EventDNSOptions,
	ChangeWINS:        events.EventWINS,
	ChangeDNSPriority: events.EventDNSPriority,
}

// Notify implements Notifier.
func (n HubNotifier) Notify(c *Config, group ChangeSet) {
	t, ok := groupEvents[group]
	if !ok || n.Hub == nil {
		return
	}
	n.Hub.EmitConfigChange(t, events.ConfigChangeData{
		ConfigID: c.ID().String(),
		Ifindex:  c.Ifindex(),
		Family:   c.Family().String(),
	})
}

// touch records a change of g and invalidates the views derived from it.
func (c *Config) touch(g ChangeSet) {
	c.pending |= g
	if g&ChangeAddresses != 0 {
		c.addressData.reset()
	}
	if g&ChangeRoutes != 0 {
		c.routeData.reset()
	}
}

// flush delivers the pending changes, one notification per group.
func (c *Config) flush() {
	pending := c.pending
	c.pending = 0
	if pending == 0 {
		return
	}
	m := metrics.Get()
	for _, g := range pending.Groups() {
		m.Notifications.WithLabelValues(g.String()).Inc()
		if c.notifier != nil {
			c.notifier.Notify(c, g)
		}
	}
}
