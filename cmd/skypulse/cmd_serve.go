package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/skypulse/internal/api/http"
	"github.com/i474232898/skypulse/internal/geocode"
	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/scheduler"
	"github.com/i474232898/skypulse/internal/store"
	"github.com/i474232898/skypulse/internal/weather"
)

var serveAccessLog bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SkyPulse HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", true, "log every request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	session := weather.NewSession(rt.composer, rt.metrics)
	prefs := store.NewMemoryStore(rt.cfg.MaxSavedLocations)

	if rt.cfg.DefaultLocation != "" {
		loadDefaultLocation(ctx, rt, session, prefs)
	}

	sched := scheduler.New(session, rt.cfg.RefreshInterval, rt.cfg.HTTPTimeout*3)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Composer:    rt.composer,
		Session:     session,
		Resolver:    rt.resolver,
		Suggest:     geocode.NewAutocomplete(rt.resolver, rt.cfg.AutocompleteDebounce, rt.clock),
		Radar:       rt.radar,
		Preferences: prefs,
		Metrics:     rt.metrics,
		Clock:       rt.clock,
	}, serveAccessLog)

	go func() {
		log.Infow("Listening", "port", rt.cfg.Port)
		if err := app.Listen(":" + rt.cfg.Port); err != nil {
			log.Errorw("Fiber server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func loadDefaultLocation(ctx context.Context, rt *runtime, session *weather.Session, prefs *store.MemoryStore) {
	log := logger.GetLogger()

	coords, ok := rt.resolver.Coordinates(ctx, rt.cfg.DefaultLocation)
	if !ok {
		log.Warnw("Default location not found", "query", rt.cfg.DefaultLocation)
		return
	}
	snap, err := session.Refresh(ctx, *coords, prefs.Unit())
	if err != nil {
		log.Warnw("Default location refresh failed", "query", rt.cfg.DefaultLocation, "error", err)
		return
	}
	log.Infow("Default location loaded", "location", snap.Data.Current.Location, "cycleID", snap.CycleID)
}
