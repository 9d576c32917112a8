package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

// ErrDiffers is returned by RunDiff when the kernel state differs from the
// desired state.
var ErrDiffers = errors.New("configuration differs")

// RunDiff compares the captured state of a connection's interface with the
// state applying its profiles would produce.
func RunDiff(w io.Writer, connection string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	conn, err := s.connection(connection)
	if err != nil {
		return err
	}

	differs := false
	for _, family := range profileFamilies(conn) {
		idx := ipconfig.NewIndex(family)
		current, err := s.capture(idx, conn.Interface)
		if err != nil {
			return err
		}
		desired := ipconfig.New(idx, current.Ifindex())
		desired.Merge(current, 0)
		desired.MergeSetting(conn.Profile(family), s.cfg.DefaultRouteMetric)

		if ipconfig.Equal(current, desired) {
			current.Release()
			desired.Release()
			continue
		}
		differs = true

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(dump(current, "running")),
			B:        difflib.SplitLines(dump(desired, "desired")),
			FromFile: fmt.Sprintf("%s/%s running", conn.Interface, family),
			ToFile:   fmt.Sprintf("%s/%s desired", conn.Interface, family),
			Context:  3,
		})
		current.Release()
		desired.Release()
		if err != nil {
			return fmt.Errorf("failed to diff: %w", err)
		}
		fmt.Fprint(w, text)
	}

	if !differs {
		fmt.Fprintln(w, "No changes detected.")
		return nil
	}
	return ErrDiffers
}

func init() {
	mainCommand.AddCommand(&cobra.Command{
		Use:   "diff CONNECTION",
		Short: "Show how applying a connection would change its interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunDiff(cmd.OutOrStdout(), args[0])
		},
	})
}
