package cmd

import (
	"fmt"
	"io"

	"github.com/SailorOrion/NetworkManager/internal/config"
	"github.com/SailorOrion/NetworkManager/internal/ipconfig"
	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/spf13/cobra"
)

// RunExport captures the interface of a connection and writes the derived
// profiles back into the configuration file, keeping a backup.
func RunExport(w io.Writer, connection string, families []netobj.Family) error {
	if paramConfig == "" {
		return fmt.Errorf("export needs --config")
	}
	cf, err := config.LoadConfigFile(paramConfig)
	if err != nil {
		return err
	}
	conn, ok := cf.Config.FindConnection(connection)
	if !ok {
		return fmt.Errorf("connection %q not found", connection)
	}

	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, family := range families {
		c, err := s.capture(ipconfig.NewIndex(family), conn.Interface)
		if err != nil {
			return err
		}
		profile := c.CreateSetting()
		c.Release()
		if err := cf.SetProfile(connection, family, profile); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s", config.RenderProfile(family, profile))
	}

	if err := cf.Save(); err != nil {
		return err
	}
	logging.Audit("export", cf.Path, map[string]any{"connection": connection})
	return nil
}

func init() {
	var family string
	exportCommand := &cobra.Command{
		Use:   "export CONNECTION",
		Short: "Store the current state of a connection's interface as its profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			families := []netobj.Family{netobj.IPv4, netobj.IPv6}
			if family != "" {
				f, err := parseFamily(family)
				if err != nil {
					return err
				}
				families = []netobj.Family{f}
			}
			return RunExport(cmd.OutOrStdout(), args[0], families)
		},
	}
	exportCommand.Flags().StringVarP(&family, "family", "f", "", "address family (4 or 6, default both)")
	mainCommand.AddCommand(exportCommand)
}
