package cmd

import (
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/SailorOrion/NetworkManager/internal/autoconf"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/mdlayher/ndp"
	"github.com/spf13/cobra"
)

// ImportOptions controls the import commands.
type ImportOptions struct {
	Metric uint32
	Apply  bool
	DryRun bool
	// Router is the sender of a router advertisement.
	Router string
}

// RunImportDHCP turns a raw DHCPv4 ACK read from file into the IPv4
// configuration of iface.
func RunImportDHCP(w io.Writer, iface, file string, opts ImportOptions) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read lease: %w", err)
	}
	ack, err := dhcpv4.FromBytes(raw)
	if err != nil {
		return fmt.Errorf("failed to parse lease: %w", err)
	}

	s, err := openSession(opts.DryRun)
	if err != nil {
		return err
	}
	defer s.Close()
	ifindex, err := s.ifindex(iface)
	if err != nil {
		return err
	}

	idx := ipconfig.NewIndex(netobj.IPv4)
	lease, err := autoconf.FromDHCPv4(idx, ifindex, ack, autoconf.Options{RouteMetric: opts.Metric})
	if err != nil {
		return err
	}
	defer lease.Release()
	return s.importResult(w, idx, iface, lease, opts, "dhcp")
}

// RunImportRA turns a raw router advertisement read from file into the
// IPv6 configuration of iface.
func RunImportRA(w io.Writer, iface, file string, opts ImportOptions) error {
	router, err := netip.ParseAddr(opts.Router)
	if err != nil {
		return fmt.Errorf("invalid router address: %w", err)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read router advertisement: %w", err)
	}
	msg, err := ndp.ParseMessage(raw)
	if err != nil {
		return fmt.Errorf("failed to parse router advertisement: %w", err)
	}
	ra, ok := msg.(*ndp.RouterAdvertisement)
	if !ok {
		return fmt.Errorf("%s holds a %T, not a router advertisement", file, msg)
	}

	s, err := openSession(opts.DryRun)
	if err != nil {
		return err
	}
	defer s.Close()
	link, err := s.nl.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("failed to find interface %s: %w", iface, err)
	}

	idx := ipconfig.NewIndex(netobj.IPv6)
	slaac, err := autoconf.FromRouterAdvertisement(idx, link.Attrs().Index, router, ra,
		link.Attrs().HardwareAddr, autoconf.Options{RouteMetric: opts.Metric})
	if err != nil {
		return err
	}
	defer slaac.Release()
	return s.importResult(w, idx, iface, slaac, opts, "ndisc")
}

func (s *session) importResult(w io.Writer, idx *ipconfig.Index, iface string, c *ipconfig.Config, opts ImportOptions, what string) error {
	if !opts.Apply {
		c.Dump(w, what)
		return nil
	}
	return s.mergeAndCommit(w, idx, iface, c)
}

func init() {
	importCommand := &cobra.Command{
		Use:   "import",
		Short: "Derive IP configuration from captured autoconfiguration messages",
	}

	var dhcpOpts ImportOptions
	dhcpCommand := &cobra.Command{
		Use:   "dhcp IFACE FILE",
		Short: "Import a raw DHCPv4 ACK",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImportDHCP(cmd.OutOrStdout(), args[0], args[1], dhcpOpts)
		},
	}

	var raOpts ImportOptions
	raCommand := &cobra.Command{
		Use:   "ra IFACE FILE",
		Short: "Import a raw ICMPv6 router advertisement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImportRA(cmd.OutOrStdout(), args[0], args[1], raOpts)
		},
	}
	raCommand.Flags().StringVar(&raOpts.Router, "router", "", "link-local address of the advertising router")
	_ = raCommand.MarkFlagRequired("router")

	for _, c := range []struct {
		cmd  *cobra.Command
		opts *ImportOptions
	}{{dhcpCommand, &dhcpOpts}, {raCommand, &raOpts}} {
		c.cmd.Flags().Uint32Var(&c.opts.Metric, "metric", 0, "metric of the derived routes")
		c.cmd.Flags().BoolVar(&c.opts.Apply, "apply", false, "merge into the interface and commit")
		c.cmd.Flags().BoolVarP(&c.opts.DryRun, "dry-run", "n", false, "with --apply, print operations without applying them")
		importCommand.AddCommand(c.cmd)
	}
	mainCommand.AddCommand(importCommand)
}
