package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/api"
	"github.com/example/snipe/internal/reservation"
)

func newVenueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venue",
		Short: "Venue detail, links, availability and insight",
	}
	cmd.AddCommand(newVenueShowCmd(), newVenueLinksCmd(), newVenueInsightCmd(), newVenueCalendarCmd(), newVenueSlotsCmd())
	return cmd
}

func newVenueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <venue-id>",
		Short: "Show venue detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			v, err := a.client.GetVenue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", v.Name, v.ID)
			if v.Neighborhood != "" || v.Locality != "" {
				fmt.Fprintf(out, "  %s, %s\n", v.Neighborhood, v.Locality)
			}
			if v.Address != "" {
				fmt.Fprintf(out, "  %s\n", v.Address)
			}
			if v.Rating > 0 {
				fmt.Fprintf(out, "  rating %.1f\n", v.Rating)
			}
			if v.Description != "" {
				fmt.Fprintf(out, "\n%s\n", v.Description)
			}
			return nil
		},
	}
}

func newVenueLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links <venue-id>",
		Short: "Find the venue on other platforms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			l, err := a.client.GetVenueLinks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, row := range [][2]string{
				{"resy", l.Resy}, {"opentable", l.OpenTable}, {"google maps", l.GoogleMaps},
				{"beli", l.Beli}, {"website", l.Website}, {"instagram", l.Instagram},
			} {
				if row[1] != "" {
					fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
				}
			}
			return tw.Flush()
		},
	}
}

func newVenueInsightCmd() *cobra.Command {
	var city string
	cmd := &cobra.Command{
		Use:   "insight <venue-id>",
		Short: "Generated write-up of a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			v, err := a.client.GetVenue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if city == "" {
				city = a.cfg.City
			}
			text, err := a.client.VenueInsight(cmd.Context(), v.Name, city)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "city id (defaults to the configured city)")
	return cmd
}

func newVenueCalendarCmd() *cobra.Command {
	var partySize int
	cmd := &cobra.Command{
		Use:   "calendar <venue-id>",
		Short: "Day-by-day availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			days, err := a.client.Calendar(cmd.Context(), args[0], partySize)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tSTATUS")
			for _, d := range days {
				fmt.Fprintf(tw, "%s\t%s\n", d.Date, d.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&partySize, "party-size", 2, "party size")
	return cmd
}

func newVenueSlotsCmd() *cobra.Command {
	var (
		partySize int
		day       string
		desired   string
		window    float64
	)
	cmd := &cobra.Command{
		Use:   "slots <venue-id>",
		Short: "Bookable times on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			slots, err := a.client.Slots(cmd.Context(), args[0], day, partySize)
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), slots, desired, window)
		},
	}
	cmd.Flags().IntVar(&partySize, "party-size", 2, "party size")
	cmd.Flags().StringVar(&day, "day", "", "day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&desired, "time", "", "mark the slot closest to this time (HH:MM)")
	cmd.Flags().Float64Var(&window, "window", 1, "hours either side of --time a slot may be")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func printSlots(w io.Writer, slots []api.Slot, desired string, window float64) error {
	var pick api.Slot
	ok := false
	if desired != "" {
		pick, ok = reservation.ChooseSlot(desired, window, slots)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\t")
	for _, s := range slots {
		mark := ""
		if ok && s == pick {
			mark = "<- best match"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Time, s.Type, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if desired != "" && !ok {
		_, err := fmt.Fprintf(w, "no slot within %s\n", reservation.SlotWindow(desired, window))
		return err
	}
	return nil
}
