package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/snipe/internal/search"
)

type searchFlags struct {
	cuisines    []string
	prices      []string
	available   bool
	notReleased bool
	bookmarked  bool
	mode        string
	day         string
	partySize   string
	desiredTime string
	city        string
	page        int
	perPage     int
	asJSON      bool
}

func (f *searchFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.cuisines, "cuisine", nil, "cuisine facet (repeatable or comma separated)")
	fs.StringSliceVar(&f.prices, "price", nil, "price tier facet 1-4 (repeatable)")
	fs.BoolVar(&f.available, "available", false, "only venues with open tables on --day")
	fs.BoolVar(&f.notReleased, "not-released", false, "only venues whose tables for --day are not released yet")
	fs.BoolVar(&f.bookmarked, "bookmarked", false, "only bookmarked venues")
	fs.StringVar(&f.mode, "mode", "browse", "browse, trending, top-rated or bookmarks")
	fs.StringVar(&f.day, "day", "", "availability day (YYYY-MM-DD)")
	fs.StringVar(&f.partySize, "party-size", "", "availability party size")
	fs.StringVar(&f.desiredTime, "time", "", "desired time (HH:MM)")
	fs.StringVar(&f.city, "city", "", "city id (defaults to the configured city)")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.perPage, "per-page", search.DefaultPerPage, "results per page")
	fs.BoolVar(&f.asJSON, "json", false, "print JSON")
}

func (f *searchFlags) filters(query string) (search.SearchFilters, error) {
	mode, err := search.ParseMode(f.mode)
	if err != nil {
		return search.SearchFilters{}, err
	}
	return search.SearchFilters{
		Query:           strings.TrimSpace(query),
		Cuisines:        f.cuisines,
		PriceRanges:     f.prices,
		AvailableOnly:   f.available,
		NotReleasedOnly: f.notReleased,
		BookmarkedOnly:  f.bookmarked || mode == search.ModeBookmarks,
		Mode:            mode,
		Day:             f.day,
		PartySize:       f.partySize,
		DesiredTime:     f.desiredTime,
		City:            f.city,
	}, nil
}

func newSearchCmd() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search restaurants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			filters, err := f.filters(strings.Join(args, " "))
			if err != nil {
				return err
			}
			sess := search.NewSession(a.client, a.cfg.City, search.WithSessionLogger(a.log))
			page, err := sess.Search(cmd.Context(), search.Query{Filters: filters, Page: f.page, PerPage: f.perPage})
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), page, f.asJSON)
		},
	}
	f.bind(cmd)
	cmd.AddCommand(newSearchMapCmd(), newSearchLiveCmd())
	return cmd
}

func newSearchMapCmd() *cobra.Command {
	var (
		f      searchFlags
		bounds []float64
	)
	cmd := &cobra.Command{
		Use:   "map [query]",
		Short: "Search restaurants inside a map viewport",
		Long:  "Search inside --bounds sw_lat,sw_lng,ne_lat,ne_lng, or the city's default viewport when omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			filters, err := f.filters(strings.Join(args, " "))
			if err != nil {
				return err
			}
			city := a.cfg.City
			if f.city != "" {
				city = f.city
			}
			b, err := viewport(bounds, city)
			if err != nil {
				return err
			}
			sess := search.NewSession(a.client, a.cfg.City, search.WithSessionLogger(a.log))
			page, err := sess.Search(cmd.Context(), search.Query{Filters: filters, Bounds: &b, Page: f.page, PerPage: f.perPage})
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), page, f.asJSON)
		},
	}
	f.bind(cmd)
	cmd.Flags().Float64SliceVar(&bounds, "bounds", nil, "sw_lat,sw_lng,ne_lat,ne_lng")
	return cmd
}

func viewport(bounds []float64, city string) (search.Bounds, error) {
	switch len(bounds) {
	case 0:
		c, err := search.LookupCity(city)
		if err != nil {
			return search.Bounds{}, err
		}
		return c.Bounds, nil
	case 4:
		return search.Bounds{SWLat: bounds[0], SWLng: bounds[1], NELat: bounds[2], NELng: bounds[3]}, nil
	default:
		return search.Bounds{}, errors.New("--bounds takes four values: sw_lat,sw_lng,ne_lat,ne_lng")
	}
}

func newSearchLiveCmd() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Search as you type: each stdin line is a query, results print once input settles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sess := search.NewSession(a.client, a.cfg.City, search.WithSessionLogger(a.log))
			defer sess.Stop()
			out := cmd.OutOrStdout()
			return runLive(ctx, cmd.InOrStdin(), sess, func(q string) (search.Query, error) {
				filters, err := f.filters(q)
				return search.Query{Filters: filters, Page: 1, PerPage: f.perPage}, err
			}, func(p search.Page, err error) {
				if err != nil {
					fmt.Fprintln(out, "error:", err)
					return
				}
				_ = printPage(out, p, f.asJSON)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

// runLive schedules a debounced search for every line read from in. At end of
// input the last query runs at once unless its scheduled search already fired.
func runLive(ctx context.Context, in io.Reader, sess *search.Session, build func(string) (search.Query, error), emit func(search.Page, error)) error {
	var (
		scheduled, emitted atomic.Int64
		last               *search.Query
	)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		q, err := build(sc.Text())
		if err != nil {
			emit(search.Page{}, err)
			continue
		}
		seq := scheduled.Add(1)
		last = &q
		sess.Schedule(ctx, q, func(p search.Page, err error) {
			emitted.Store(seq)
			emit(p, err)
		})
	}
	if err := sc.Err(); err != nil {
		return err
	}
	sess.Stop()
	if last == nil || emitted.Load() == scheduled.Load() {
		return nil
	}
	p, err := sess.Search(ctx, *last)
	if errors.Is(err, search.ErrStaleResult) {
		return nil
	}
	emit(p, err)
	return nil
}

func printPage(w io.Writer, p search.Page, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNEIGHBORHOOD\tPRICE\tAVAILABILITY")
	for _, r := range p.Results {
		avail := r.Availability
		if len(r.AvailableTimes) > 0 {
			avail = strings.Join(r.AvailableTimes, " ")
		}
		hood := r.Neighborhood
		if hood == "" {
			hood = r.Locality
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, hood, r.PriceLabel(), avail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, p.Pagination.Summary(len(p.Results)))
	return err
}
