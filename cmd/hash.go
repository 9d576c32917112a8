package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/spf13/cobra"
)

// RunHash prints the content digest of the captured state of iface.
func RunHash(w io.Writer, iface, familyName string, dnsOnly bool) error {
	family, err := parseFamily(familyName)
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

	fmt.Fprintln(w, hex.EncodeToString(c.Hash(dnsOnly)))
	return nil
}

func init() {
	var (
		family  string
		dnsOnly bool
	)
	hashCommand := &cobra.Command{
		Use:   "hash IFACE",
		Short: "Print the content digest of an interface's IP configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunHash(cmd.OutOrStdout(), args[0], family, dnsOnly)
		},
	}
	familyFlag(hashCommand, &family)
	hashCommand.Flags().BoolVar(&dnsOnly, "dns-only", false, "hash only the DNS configuration")
	mainCommand.AddCommand(hashCommand)
}
