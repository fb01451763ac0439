package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/reservation"
	"github.com/example/snipe/internal/web"
)

func newServerCmd() *cobra.Command {
	var origins []string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the local JSON server for the browser front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireUser(); err != nil {
				return err
			}
			hashKey, blockKey, err := a.cfg.CookieKeys()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cache, closeCache := a.venueCache(ctx)
			defer closeCache()

			sessions := web.NewSessions(hashKey, blockKey, a.client, a.cfg.City, a.log)
			defer sessions.Close()

			ws := &web.Server{
				Backend:        a.client,
				Sessions:       sessions,
				Scheduler:      reservation.Scheduler{Backend: a.client, UserID: a.cfg.Auth.UserID, Log: a.log},
				Jobs:           a.lister(store, cache),
				UserID:         a.cfg.Auth.UserID,
				Log:            a.log,
				AllowedOrigins: origins,
			}
			return web.Start(ctx, a.cfg.Server.ListenAddr, ws.Routes(), a.log)
		},
	}

	cmd.Flags().StringSliceVar(&origins, "allow-origin", []string{"http://localhost:5173"}, "CORS origins allowed to call the server")
	return cmd
}
