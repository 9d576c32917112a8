package cmd

import (
	"fmt"
	"os"

	"github.com/SailorOrion/NetworkManager/internal/logging"
	"github.com/SailorOrion/NetworkManager/internal/netobj"
	"github.com/spf13/cobra"
)

// BinaryName is the name of the command line tool.
const BinaryName = "nmipc"

var mainCommand = &cobra.Command{
	Use:               BinaryName,
	Short:             "Capture, inspect and reconcile interface IP configuration",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

var (
	paramConfig   string
	paramNetns    string
	paramLogLevel string
	paramJSONLog  bool
)

func init() {
	flags := mainCommand.PersistentFlags()
	flags.StringVarP(&paramConfig, "config", "c", "", "configuration file")
	flags.StringVar(&paramNetns, "netns", "", "network namespace to operate in")
	flags.StringVar(&paramLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&paramJSONLog, "json-log", false, "log in JSON")
}

// Run executes the command line.
func Run() error {
	return mainCommand.Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(paramLogLevel)
	if err != nil {
		return err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.JSON = paramJSONLog
	cfg.Output = os.Stderr
	logging.SetDefault(logging.New(cfg))
	return nil
}

// parseFamily accepts "4", "6", "ipv4" and "ipv6".
func parseFamily(s string) (netobj.Family, error) {
	switch s {
	case "4", "ipv4", "inet":
		return netobj.IPv4, nil
	case "6", "ipv6", "inet6":
		return netobj.IPv6, nil
	}
	return 0, fmt.Errorf("unknown address family %q", s)
}

// familyFlag registers --family on c.
func familyFlag(c *cobra.Command, p *string) {
	c.Flags().StringVarP(p, "family", "f", "4", "address family (4 or 6)")
}
