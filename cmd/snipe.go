package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/reservation"
)

type snipeFlags struct {
	venueID     string
	partySize   int
	date        string
	timeSlot    string
	windowHours float64
	seating     string
	drops       []string
}

func (f *snipeFlags) bind(cmd *cobra.Command) {
	def := reservation.DefaultForm("")
	fs := cmd.Flags()
	fs.StringVar(&f.venueID, "venue", "", "venue id")
	fs.IntVar(&f.partySize, "party-size", def.PartySize, "party size")
	fs.StringVar(&f.date, "date", "", "reservation date (YYYY-MM-DD)")
	fs.StringVar(&f.timeSlot, "time", def.TimeSlot, "desired time slot (HH:MM)")
	fs.Float64Var(&f.windowHours, "window", def.WindowHours, "hours either side of --time that are acceptable")
	fs.StringVar(&f.seating, "seating", "", "seating type, e.g. Dining Room")
	fs.StringArrayVar(&f.drops, "drop", nil, `drop moment "YYYY-MM-DD[ HH:MM]" in Eastern time (repeatable)`)
}

func (f *snipeFlags) form() (reservation.FormState, error) {
	drops, err := parseDrops(f.drops)
	if err != nil {
		return reservation.FormState{}, err
	}
	return reservation.FormState{
		VenueID:       f.venueID,
		PartySize:     f.partySize,
		Date:          f.date,
		TimeSlot:      f.timeSlot,
		WindowHours:   f.windowHours,
		SeatingType:   f.seating,
		DropSchedules: drops,
	}, nil
}

// parseDrops reads "YYYY-MM-DD", "YYYY-MM-DD HH:MM" or "YYYY-MM-DDTHH:MM".
func parseDrops(in []string) ([]reservation.DropSchedule, error) {
	out := make([]reservation.DropSchedule, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(strings.Replace(s, "T", " ", 1))
		date, clock, _ := strings.Cut(s, " ")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("--drop %q: want YYYY-MM-DD[ HH:MM]", s)
		}
		out = append(out, reservation.DropSchedule{DropDate: date, DropTime: strings.TrimSpace(clock)})
	}
	return out, nil
}

func newSnipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snipe",
		Short: "Schedule, change or cancel snipe jobs",
	}
	cmd.AddCommand(newSnipeCreateCmd(), newSnipeUpdateCmd(), newSnipeCancelCmd())
	return cmd
}

func newSnipeCreateCmd() *cobra.Command {
	var f snipeFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule one job per --drop",
		Example: `  snipe snipe create --venue 1505 --date 2026-02-14 --time 19:30 --party-size 2 \
    --drop "2026-01-15 10:00" --drop 2026-01-16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			form, err := f.form()
			if err != nil {
				return err
			}
			s := reservation.Scheduler{Backend: a.client, UserID: a.cfg.Auth.UserID, Log: a.log}
			confs, err := s.Submit(cmd.Context(), form)
			printConfirmations(cmd.OutOrStdout(), confs...)
			return explainSubmitError(err)
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

func newSnipeUpdateCmd() *cobra.Command {
	var f snipeFlags
	cmd := &cobra.Command{
		Use:   "update <job-id>",
		Short: "Replace a pending job's parameters (uses the first --drop)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			form, err := f.form()
			if err != nil {
				return err
			}
			s := reservation.Scheduler{Backend: a.client, UserID: a.cfg.Auth.UserID, Log: a.log}
			conf, err := s.Update(cmd.Context(), args[0], form)
			if err != nil {
				return explainSubmitError(err)
			}
			printConfirmations(cmd.OutOrStdout(), conf)
			return nil
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

func newSnipeCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			s := reservation.Scheduler{Backend: a.client, UserID: a.cfg.Auth.UserID, Log: a.log}
			if err := s.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
			return nil
		},
	}
}

func printConfirmations(w io.Writer, confs ...reservation.Confirmation) {
	for _, c := range confs {
		fmt.Fprintf(w, "scheduled %s: fires %s\n", c.JobID, c.Target.Format("Mon Jan 2, 2006 3:04 PM MST"))
	}
}

// explainSubmitError names the form field for validation failures.
func explainSubmitError(err error) error {
	if err == nil {
		return nil
	}
	var verr *reservation.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("invalid %s: %w", verr.Field, verr.Err)
	}
	var serr *reservation.SubmitError
	if errors.As(err, &serr) && len(serr.Created) > 0 {
		return fmt.Errorf("%w (%d job(s) were already scheduled)", err, len(serr.Created))
	}
	return err
}
