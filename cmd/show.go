package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/netip"

	"github.com/SailorOrion/NetworkManager/internal/config"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// ShowOptions controls RunShow.
type ShowOptions struct {
	Family string
	// Profile prints the profile derived from the captured state as HCL
	// instead of the YAML view.
	Profile bool
}

// view is the YAML rendering of a captured config.
type view struct {
	Interface   string                 `yaml:"interface"`
	Ifindex     int                    `yaml:"ifindex"`
	Family      string                 `yaml:"family"`
	Addresses   []ipconfig.AddressData `yaml:"addresses,omitempty"`
	Routes      []ipconfig.RouteData   `yaml:"routes,omitempty"`
	Gateway     string                 `yaml:"gateway,omitempty"`
	RouteMetric int64                  `yaml:"route-metric,omitempty"`
	Nameservers []string               `yaml:"nameservers,omitempty"`
	Domains     []string               `yaml:"domains,omitempty"`
	Searches    []string               `yaml:"searches,omitempty"`
	DNSOptions  []string               `yaml:"dns-options,omitempty"`
	DNSPriority int                    `yaml:"dns-priority,omitempty"`
	MTU         uint32                 `yaml:"mtu,omitempty"`
	Hash        string                 `yaml:"hash"`
}

func newView(name string, c *ipconfig.Config) view {
	v := view{
		Interface:   name,
		Ifindex:     c.Ifindex(),
		Family:      c.Family().String(),
		Addresses:   c.AddressData(),
		Routes:      c.RouteData(),
		Nameservers: addrStrings(c.Nameservers()),
		Domains:     c.Domains(),
		Searches:    c.Searches(),
		DNSOptions:  c.DNSOptions(),
		DNSPriority: c.DNSPriority(),
		Hash:        hex.EncodeToString(c.Hash(false)),
	}
	if gw, ok := c.Gateway(); ok {
		v.Gateway = gw.String()
		v.RouteMetric = c.RouteMetric()
	}
	v.MTU, _ = c.MTU()
	return v
}

func addrStrings(addrs []netip.Addr) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}

// RunShow captures one family of iface and prints it.
func RunShow(w io.Writer, iface string, opts ShowOptions) error {
	family, err := parseFamily(opts.Family)
	if err != nil {
		return err
	}
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.capture(ipconfig.NewIndex(family), iface)
	if err != nil {
		return err
	}
	defer c.Release()

	if opts.Profile {
		_, err := w.Write(config.RenderProfile(family, c.CreateSetting()))
		return err
	}

	out, err := yaml.Marshal(newView(iface, c))
	if err != nil {
		return fmt.Errorf("failed to render view: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func init() {
	var opts ShowOptions
	showCommand := &cobra.Command{
		Use:   "show IFACE",
		Short: "Capture and print the IP configuration of an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunShow(cmd.OutOrStdout(), args[0], opts)
		},
	}
	familyFlag(showCommand, &opts.Family)
	showCommand.Flags().BoolVar(&opts.Profile, "profile", false, "print the derived profile as HCL")
	mainCommand.AddCommand(showCommand)
}
