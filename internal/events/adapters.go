package events

import (
	"github.com/SailorOrion/NetworkManager/internal/logging"
)

// LogBridge forwards every event on the hub to a logger at debug level.
type LogBridge struct {
	hub    *Hub
	logger *logging.Logger
	ch     <-chan Event
	done   chan struct{}
	stop   chan struct{}
}

// NewLogBridge creates a bridge from hub to logger.
func NewLogBridge(hub *Hub, logger *logging.Logger) *LogBridge {
	return &LogBridge{
		hub:    hub,
		logger: logger,
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

// Start begins forwarding events.
func (b *LogBridge) Start() {
	b.ch = b.hub.Subscribe(256)

	go func() {
		defer close(b.done)
		for {
			select {
			case <-b.stop:
				return
			case e := <-b.ch:
				b.forward(e)
			}
		}
	}()
}

// Stop stops the bridge and unsubscribes it from the hub.
func (b *LogBridge) Stop() {
	close(b.stop)
	<-b.done
	b.hub.Unsubscribe(b.ch)
}

func (b *LogBridge) forward(e Event) {
	switch d := e.Data.(type) {
	case ConfigChangeData:
		b.logger.Debug("config changed", "event", string(e.Type), "ifindex", d.Ifindex, "family", d.Family, "id", d.ConfigID)
	case PlatformData:
		if d.Error != "" {
			b.logger.Warn("platform sync failed", "event", string(e.Type), "ifindex", d.Ifindex, "family", d.Family, "error", d.Error)
			return
		}
		b.logger.Debug("platform sync", "event", string(e.Type), "ifindex", d.Ifindex, "family", d.Family)
	default:
		b.logger.Debug("event", "event", string(e.Type), "source", e.Source)
	}
}
