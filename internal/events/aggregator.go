package events

import (
	"context"
	"sort"
	"sync"
)

// Aggregator subscribes to change events and keeps per-interface counts of
// how often each field group changed. It is used to summarise what an apply
// run touched.
type Aggregator struct {
	hub *Hub
	ch  <-chan Event

	mu     sync.Mutex
	counts map[int]map[EventType]int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// GroupCount is one row of an aggregator summary.
type GroupCount struct {
	Ifindex int       `json:"ifindex"`
	Type    EventType `json:"type"`
	Count   int       `json:"count"`
}

// NewAggregator creates an aggregator bound to hub. Call Start to begin
// consuming events.
func NewAggregator(hub *Hub) *Aggregator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Aggregator{
		hub:    hub,
		counts: make(map[int]map[EventType]int),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the config field-group events.
func (a *Aggregator) Start() {
	a.ch = a.hub.Subscribe(1024, ConfigEventTypes...)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-a.ctx.Done():
				a.drain()
				return
			case e := <-a.ch:
				a.record(e)
			}
		}
	}()
}

// Stop unsubscribes and waits until every queued event has been counted.
func (a *Aggregator) Stop() {
	a.cancel()
	a.wg.Wait()
	if a.ch != nil {
		a.hub.Unsubscribe(a.ch)
	}
}

func (a *Aggregator) drain() {
	for {
		select {
		case e := <-a.ch:
			a.record(e)
		default:
			return
		}
	}
}

func (a *Aggregator) record(e Event) {
	data, ok := e.Data.(ConfigChangeData)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	byType := a.counts[data.Ifindex]
	if byType == nil {
		byType = make(map[EventType]int)
		a.counts[data.Ifindex] = byType
	}
	byType[e.Type]++
}

// Summary returns the counts sorted by ifindex and event type.
func (a *Aggregator) Summary() []GroupCount {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []GroupCount
	for ifindex, byType := range a.counts {
		for t, n := range byType {
			out = append(out, GroupCount{Ifindex: ifindex, Type: t, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ifindex != out[j].Ifindex {
			return out[i].Ifindex < out[j].Ifindex
		}
		return out[i].Type < out[j].Type
	})
	return out
}
