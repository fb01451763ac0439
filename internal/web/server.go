// Package web is the local JSON server a browser front end talks to.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/example/snipe/internal/api"
	"github.com/example/snipe/internal/jobs"
	"github.com/example/snipe/internal/reservation"
	"github.com/example/snipe/internal/search"
)

// Backend is the part of the API client the handlers call directly.
type Backend interface {
	search.Fetcher
	GetVenue(ctx context.Context, id string) (api.Venue, error)
	GetVenueLinks(ctx context.Context, id string) (api.VenueLinks, error)
	Calendar(ctx context.Context, venueID string, partySize int) ([]api.CalendarDay, error)
	Slots(ctx context.Context, venueID, day string, partySize int) ([]api.Slot, error)
}

type Server struct {
	Backend   Backend
	Sessions  *Sessions
	Scheduler reservation.Scheduler
	Jobs      *jobs.Lister
	UserID    string
	Log       logrus.FieldLogger

	// AllowedOrigins for CORS; empty means any origin.
	AllowedOrigins []string
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	chain := alice.New(s.Sessions.Middleware, jsonContent)
	mux.Handle("GET /api/cities", chain.ThenFunc(s.handleCities))
	mux.Handle("GET /api/city", chain.ThenFunc(s.handleGetCity))
	mux.Handle("PUT /api/city", chain.ThenFunc(s.handleSetCity))
	mux.Handle("GET /api/search", chain.ThenFunc(s.handleSearch))
	mux.Handle("GET /api/venues/{id}", chain.ThenFunc(s.handleVenue))
	mux.Handle("GET /api/venues/{id}/links", chain.ThenFunc(s.handleVenueLinks))
	mux.Handle("GET /api/venues/{id}/calendar", chain.ThenFunc(s.handleCalendar))
	mux.Handle("GET /api/venues/{id}/slots", chain.ThenFunc(s.handleSlots))
	mux.Handle("POST /api/snipes", chain.ThenFunc(s.handleCreateSnipes))
	mux.Handle("PUT /api/snipes/{id}", chain.ThenFunc(s.handleUpdateSnipe))
	mux.Handle("DELETE /api/snipes/{id}", chain.ThenFunc(s.handleCancelSnipe))
	mux.Handle("GET /api/reservations", chain.ThenFunc(s.handleReservations))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return alice.New(s.recoverPanic, s.logRequest, c.Handler).Then(mux)
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := s.logger().WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		})
		if rec.status >= 400 {
			entry.Error("request failed")
		} else {
			entry.Info("request processed")
		}
	})
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.logger().WithField("panic", err).Error("web: handler panicked")
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: fmt.Sprint(err)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Start serves h until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.WithField("addr", addr).Info("web: listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
