package cmd

import (
	"fmt"
	"io"

	"github.com/SailorOrion/NetworkManager/internal/autoconf"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/spf13/cobra"
	"golang.zx2c4.com/wireguard/wgctrl"
)

// WireGuardOptions controls RunWireGuard.
type WireGuardOptions struct {
	Family string
	Metric uint32
	// Apply merges the result into the captured state and commits it.
	Apply  bool
	DryRun bool
}

// RunWireGuard builds the VPN configuration of a WireGuard device from its
// peers and prints it.
func RunWireGuard(w io.Writer, iface string, opts WireGuardOptions) error {
	family, err := parseFamily(opts.Family)
	if err != nil {
		return err
	}

	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("failed to open wireguard control: %w", err)
	}
	defer client.Close()
	dev, err := client.Device(iface)
	if err != nil {
		return fmt.Errorf("failed to get wireguard device %s: %w", iface, err)
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

	idx := ipconfig.NewIndex(family)
	vpn, err := autoconf.FromWireGuard(idx, ifindex, dev, autoconf.Options{RouteMetric: opts.Metric})
	if err != nil {
		return err
	}
	defer vpn.Release()

	if !opts.Apply {
		vpn.Dump(w, "wireguard "+dev.Name)
		return nil
	}
	return s.mergeAndCommit(w, idx, iface, vpn)
}

// mergeAndCommit merges src into the captured state of iface and commits
// the result.
func (s *session) mergeAndCommit(w io.Writer, idx *ipconfig.Index, iface string, src *ipconfig.Config) error {
	c, err := s.capture(idx, iface)
	if err != nil {
		return err
	}
	defer c.Release()

	c.Merge(src, 0)
	if err := s.commit(c); err != nil {
		return err
	}
	if s.dry != nil {
		for _, op := range s.dry.Commands() {
			fmt.Fprintln(w, op)
		}
		return nil
	}
	logging.Audit("merge", iface, map[string]any{
		"family":  src.Family().String(),
		"ifindex": c.Ifindex(),
	})
	return nil
}

func init() {
	var opts WireGuardOptions
	wgCommand := &cobra.Command{
		Use:   "wireguard IFACE",
		Short: "Derive routes from the peers of a WireGuard device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunWireGuard(cmd.OutOrStdout(), args[0], opts)
		},
	}
	familyFlag(wgCommand, &opts.Family)
	wgCommand.Flags().Uint32Var(&opts.Metric, "metric", 0, "metric of the derived routes")
	wgCommand.Flags().BoolVar(&opts.Apply, "apply", false, "merge the routes into the interface and commit")
	wgCommand.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "with --apply, print operations without applying them")
	mainCommand.AddCommand(wgCommand)
}
