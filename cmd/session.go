package cmd

import (
	"bytes"
	"fmt"

	"github.com/SailorOrion/NetworkManager/internal/clock"
	"github.com/SailorOrion/NetworkManager/internal/config"
	"github.com/SailorOrion/NetworkManager/internal/events"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/SailorOrion/NetworkManager/internal/network"
)

// session bundles the configuration and kernel access of one command.
type session struct {
	cfg  *config.Config
	nl   network.Netlinker
	plat ipconfig.Platform
	hub  *events.Hub

	// dry is set in dry-run mode and records every write.
	dry *network.DryRunNetlinker

	close func() error
	log   *logging.Logger
}

// openSession loads the configuration and connects to the kernel. Tests
// replace it.
var openSession = func(dryRun bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	ns := paramNetns
	if ns == "" {
		ns = cfg.Netns
	}
	kernel, err := network.NewNetlinkerAt(ns)
	if err != nil {
		return nil, fmt.Errorf("failed to open netlink: %w", err)
	}

	s := &session{
		cfg:   cfg,
		nl:    kernel,
		hub:   events.NewHub(),
		close: kernel.Close,
		log:   logging.WithComponent("cmd"),
	}
	if dryRun {
		s.dry = network.NewDryRunNetlinker(kernel)
		s.nl = s.dry
	}
	s.plat = network.NewPlatform(s.nl, clock.Default)
	return s, nil
}

// loadConfig reads --config, or returns an empty configuration when none
// is given. Logging settings of the file apply unless overridden by flags.
func loadConfig() (*config.Config, error) {
	if paramConfig == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.LoadFile(paramConfig)
	if err != nil {
		return nil, err
	}
	if paramLogLevel == "" && cfg.LogLevel != "" {
		if level, err := logging.ParseLevel(cfg.LogLevel); err == nil {
			logging.Default().SetLevel(level)
		}
	}
	if cfg.LogJSON && !paramJSONLog {
		lc := logging.DefaultConfig()
		lc.Level = logging.Default().GetLevel()
		lc.JSON = true
		logging.SetDefault(logging.New(lc))
	}
	return cfg, nil
}

func (s *session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// ifindex resolves an interface name.
func (s *session) ifindex(name string) (int, error) {
	link, err := s.nl.LinkByName(name)
	if err != nil {
		return 0, fmt.Errorf("failed to find interface %s: %w", name, err)
	}
	return link.Attrs().Index, nil
}

// capture snapshots one family of an interface. Change notifications of
// the result go to the session hub.
func (s *session) capture(idx *ipconfig.Index, name string) (*ipconfig.Config, error) {
	ifindex, err := s.ifindex(name)
	if err != nil {
		return nil, err
	}
	c, err := ipconfig.Capture(idx, s.plat, ifindex, ipconfig.CaptureOptions{
		ResolvConf: s.cfg.CaptureResolvConf,
		ResolvPath: s.cfg.ResolvConf,
	})
	data := events.PlatformData{Ifindex: ifindex, Family: idx.Family.String()}
	if c != nil {
		data.ConfigID = c.ID().String()
	}
	s.hub.EmitPlatform(events.EventCaptured, data, err)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("interface %s is enslaved to another device", name)
	}
	c.SetNotifier(ipconfig.HubNotifier{Hub: s.hub})
	return c, nil
}

// commit pushes c to the kernel and reports the outcome on the hub.
func (s *session) commit(c *ipconfig.Config) error {
	err := c.Commit(s.plat, s.cfg.DefaultRouteMetric)
	s.hub.EmitPlatform(events.EventCommitted, events.PlatformData{
		ConfigID: c.ID().String(),
		Ifindex:  c.Ifindex(),
		Family:   c.Family().String(),
	}, err)
	return err
}

// dump renders c without its header line, which carries the config id.
func dump(c *ipconfig.Config, detail string) string {
	var buf bytes.Buffer
	c.Dump(&buf, detail)
	out := buf.String()
	if i := bytes.IndexByte(buf.Bytes(), '\n'); i >= 0 {
		out = out[i+1:]
	}
	return out
}

// profileFamilies lists the families conn has a profile for.
func profileFamilies(conn *config.Connection) []netobj.Family {
	var out []netobj.Family
	for _, f := range []netobj.Family{netobj.IPv4, netobj.IPv6} {
		if conn.Profile(f) != nil {
			out = append(out, f)
		}
	}
	return out
}

// connection looks up a connection of the session configuration.
func (s *session) connection(name string) (*config.Connection, error) {
	conn, ok := s.cfg.FindConnection(name)
	if !ok {
		return nil, fmt.Errorf("connection %q not found", name)
	}
	return conn, nil
}
