package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "snipe",
		Short:         "Search restaurants and schedule reservation snipes at release time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default ./snipe.yaml)")
	root.PersistentFlags().String("log-level", "", "override log.level")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newServerCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newVenueCmd())
	root.AddCommand(newSnipeCmd())
	root.AddCommand(newReservationsCmd())
	root.AddCommand(newAccountCmd())
	root.AddCommand(newCityCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
