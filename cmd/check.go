package cmd

import (
	"fmt"
	"io"

	"github.com/SailorOrion/NetworkManager/internal/config"
	"github.com/spf13/cobra"
)

// RunCheck validates the configuration file syntax and semantics.
func RunCheck(w io.Writer, configFile string, verbose bool) error {
	if configFile == "" {
		return fmt.Errorf("usage: %s check [-v] <config-file>\nExample: %s check -v /etc/%s/%s.hcl", BinaryName, BinaryName, BinaryName, BinaryName)
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Fprintf(w, "Configuration valid!\n")
	fmt.Fprintf(w, "Connections: %d\n", len(cfg.Connections))
	if !verbose {
		return nil
	}

	for _, conn := range cfg.Connections {
		fmt.Fprintf(w, "\nconnection %q (interface %s)\n", conn.Name, conn.Interface)
		for _, family := range profileFamilies(conn) {
			fmt.Fprintf(w, "%s", config.RenderProfile(family, conn.Profile(family)))
		}
	}
	return nil
}

func init() {
	var verbose bool
	checkCommand := &cobra.Command{
		Use:   "check [CONFIG]",
		Short: "Validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := paramConfig
			if len(args) > 0 {
				file = args[0]
			}
			return RunCheck(cmd.OutOrStdout(), file, verbose)
		},
	}
	checkCommand.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the normalized profiles")
	mainCommand.AddCommand(checkCommand)
}
