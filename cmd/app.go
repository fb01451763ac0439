package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/snipe/internal/api"
	"github.com/example/snipe/internal/config"
	"github.com/example/snipe/internal/db"
	"github.com/example/snipe/internal/jobs"
	"github.com/example/snipe/internal/logging"
	"github.com/example/snipe/internal/migrate"
	"github.com/example/snipe/internal/venues"
)

// app is what every command needs: configuration, a logger and the backend client.
type app struct {
	cfg    config.Config
	viper  *viper.Viper
	log    *logrus.Logger
	client *api.Client
}

func loadApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, v, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	opts := []api.ClientOption{
		api.WithLogger(log),
		api.WithRateLimit(cfg.API.RateLimit),
		api.WithSessionExpiredHandler(func(error) {
			fmt.Fprintln(os.Stderr, "Your Resy session has expired. Run `snipe account link` to reconnect.")
		}),
	}
	if cfg.API.Timeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))
	}
	client := api.New(cfg.API.BaseURL, api.Credentials{UserID: cfg.Auth.UserID, IDToken: cfg.Auth.IDToken}, opts...)
	return &app{cfg: cfg, viper: v, log: log, client: client}, nil
}

// openStore opens the configured job store. Postgres is migrated on open.
func (a *app) openStore(ctx context.Context) (jobs.Store, error) {
	if a.cfg.Jobs.Store == config.StorePostgres {
		s, err := a.openPostgres(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := jobs.NewFirestoreStore(ctx, jobs.FirestoreConfig{
		ProjectID:       a.cfg.Firebase.ProjectID,
		CredentialsFile: a.cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) openPostgres(ctx context.Context) (*jobs.PostgresStore, error) {
	d, err := db.Open(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := migrate.Up(ctx, d, a.log); err != nil {
		d.Close()
		return nil, err
	}
	return jobs.NewPostgresStore(d), nil
}

// venueCache shares metadata through Redis when configured. The returned
// func releases the connection.
func (a *app) venueCache(ctx context.Context) (venues.Cache, func()) {
	if a.cfg.Redis.URL == "" {
		return venues.NewMemoryCache(), func() {}
	}
	rc, err := venues.OpenRedis(ctx, a.cfg.Redis.URL)
	if err != nil {
		a.log.WithError(err).Warn("redis unavailable, using in-process venue cache")
		return venues.NewMemoryCache(), func() {}
	}
	return venues.NewRedisCache(rc, a.cfg.VenueCache.TTL, a.log), func() { _ = rc.Close() }
}

func (a *app) lister(store jobs.Store, cache venues.Cache) *jobs.Lister {
	return &jobs.Lister{
		Store:  store,
		Venues: &venues.Resolver{Fetch: a.client, Cache: cache, Log: a.log},
		Log:    a.log,
	}
}
