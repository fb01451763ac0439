package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/config"
	"github.com/example/snipe/internal/search"
)

func newCityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "city",
		Short: "Show or change the selected city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			c, err := search.LookupCity(a.cfg.City)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List supported cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTIMEZONE")
			for _, c := range search.Cities() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Timezone)
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <city-id>",
		Short: "Select a city and save it to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			c, err := search.LookupCity(args[0])
			if err != nil {
				return err
			}
			if err := config.SaveCity(a.viper, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "city set to %s\n", c.Name)
			return nil
		},
	})
	return cmd
}
