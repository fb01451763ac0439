package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/config"
	"github.com/example/snipe/internal/jobs"
	"github.com/example/snipe/internal/watcher"
)

func newReservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"res"},
		Short:   "List and follow your snipe jobs",
	}
	cmd.AddCommand(newReservationsListCmd(), newReservationsWatchCmd(), newReservationsSummarizeCmd(), newReservationsSyncCmd())
	return cmd
}

func newReservationsListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest target first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			cache, closeCache := a.venueCache(ctx)
			defer closeCache()

			views, err := a.lister(store, cache).List(ctx, a.cfg.Auth.UserID)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			return printViews(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printViews(w io.Writer, views []jobs.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tVENUE\tDATE\tTIME\tPARTY\tSTATUS\tWHEN")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			v.Job.ID, v.VenueName(), v.Job.Date, v.Job.ReservationTime(), v.Job.PartySize, v.Status, v.TimeLabel)
	}
	return tw.Flush()
}

func newReservationsWatchCmd() *cobra.Command {
	var untilSettled bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll jobs and print status changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			w := &watcher.Watcher{
				Store:        store,
				UserID:       a.cfg.Auth.UserID,
				Interval:     a.cfg.Watch.Interval,
				Log:          a.log,
				UntilSettled: untilSettled,
				OnChange: func(c watcher.Change) {
					fmt.Fprintf(out, "%s  %s -> %s  (%s)\n", c.Job.ID, jobs.MapStatus(c.From), jobs.MapStatus(c.To), jobs.TimeLabel(c.Job))
				},
			}
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&untilSettled, "until-settled", false, "exit once every job has succeeded or failed")
	return cmd
}

func newReservationsSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <job-id>",
		Short: "Explain why a failed job did not book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			j, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			text, err := jobs.Summarize(ctx, a.client, j)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newReservationsSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Copy your jobs from Firestore into the Postgres mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			src, err := jobs.NewFirestoreStore(ctx, jobs.FirestoreConfig{
				ProjectID:       a.cfg.Firebase.ProjectID,
				CredentialsFile: a.cfg.Firebase.CredentialsFile,
			})
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := a.openPostgres(ctx)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := jobs.Sync(ctx, src, dst, a.cfg.Auth.UserID)
			if err != nil {
				return err
			}
			a.log.WithField("jobs", n).Info("sync: done")
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d job(s) into %s\n", n, config.StorePostgres)
			return nil
		},
	}
}
