package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/SailorOrion/NetworkManager/internal/events"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/spf13/cobra"
)

// ApplyOptions controls RunApply.
type ApplyOptions struct {
	// DryRun prints the kernel operations instead of executing them.
	DryRun bool
}

// RunApply merges the profiles of a connection into the captured state of
// its interface and commits the result.
func RunApply(w io.Writer, connection string, opts ApplyOptions) error {
	s, err := openSession(opts.DryRun)
	if err != nil {
		return err
	}
	defer s.Close()

	conn, err := s.connection(connection)
	if err != nil {
		return err
	}

	bridge := events.NewLogBridge(s.hub, s.log)
	bridge.Start()
	defer bridge.Stop()
	agg := events.NewAggregator(s.hub)
	agg.Start()

	var errs []error
	for _, family := range profileFamilies(conn) {
		c, err := s.capture(ipconfig.NewIndex(family), conn.Interface)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.MergeSetting(conn.Profile(family), s.cfg.DefaultRouteMetric)
		commitErr := s.commit(c)
		if commitErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", family, commitErr))
		}
		if !opts.DryRun {
			logging.Audit("apply", conn.Interface, map[string]any{
				"connection": conn.Name,
				"family":     family.String(),
				"hash":       fmt.Sprintf("%x", c.Hash(false)),
				"success":    commitErr == nil,
			})
		}
		c.Release()
	}
	agg.Stop()

	if s.dry != nil {
		for _, op := range s.dry.Commands() {
			fmt.Fprintln(w, op)
		}
	}
	for _, g := range agg.Summary() {
		fmt.Fprintf(w, "# %s changed %d time(s) on ifindex %d\n", g.Type, g.Count, g.Ifindex)
	}
	return errors.Join(errs...)
}

func init() {
	var opts ApplyOptions
	applyCommand := &cobra.Command{
		Use:   "apply CONNECTION",
		Short: "Apply the profiles of a connection to its interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunApply(cmd.OutOrStdout(), args[0], opts)
		},
	}
	applyCommand.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "print operations without applying them")
	mainCommand.AddCommand(applyCommand)
}
