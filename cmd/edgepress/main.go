// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/edgepress/internal/analytics"
	"github.com/olegiv/edgepress/internal/config"
	"github.com/olegiv/edgepress/internal/content"
	"github.com/olegiv/edgepress/internal/extract"
	"github.com/olegiv/edgepress/internal/fetcher"
	"github.com/olegiv/edgepress/internal/geoip"
	"github.com/olegiv/edgepress/internal/handler"
	"github.com/olegiv/edgepress/internal/logging"
	"github.com/olegiv/edgepress/internal/metrics"
	"github.com/olegiv/edgepress/internal/render"
	"github.com/olegiv/edgepress/internal/scheduler"
	"github.com/olegiv/edgepress/internal/store"
	"github.com/olegiv/edgepress/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// backgroundTimeout bounds a single page view write.
const backgroundTimeout = 10 * time.Second

// geoIPReloadSchedule reopens the GeoLite2 database weekly if the file changed.
const geoIPReloadSchedule = "0 5 * * 0"

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	cleanupOnly := flag.Bool("cleanup", false, "Run the analytics retention cleanup once and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "edgepress - edge front end for a WordPress.com site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_SITE_DOMAIN       Public domain of the site (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_UPSTREAM_URL      WordPress.com origin, e.g. https://example.wordpress.com (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_DB_DRIVER         sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_DB_DSN            Database path or DSN (default: ./data/edgepress.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_GEOIP_DB_PATH     GeoLite2 country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EDGE_CLEANUP_SCHEDULE  Cron expression for retention cleanup (default: 30 3 * * *)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info, *cleanupOnly); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, cleanupOnly bool) error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	st, closeDB := openStore(cfg)
	defer closeDB()

	if st.Available() {
		// Upgrade logger to also write WARN and ERROR logs to the event log
		logger = slog.New(logging.NewEventLogHandler(textHandler, st))
		slog.SetDefault(logger)
		slog.Info("event log integration enabled", "min_level", "warn")
	}

	sched := scheduler.New(st, cfg.CleanupSchedule, logger)

	if cleanupOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if !st.Available() {
			return errors.New("retention cleanup needs a database")
		}
		_, err := sched.RunCleanup(ctx)
		return err
	}

	if cfg.MetricsEnabled {
		metrics.Init()
	}

	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable, using edge headers only", "category", "system", "error", err)
	}
	defer func() { _ = geo.Close() }()

	table, err := content.NewTable(content.Site{
		Name:         cfg.SiteName,
		Tagline:      cfg.SiteTagline,
		ContactEmail: cfg.ContactEmail,
	})
	if err != nil {
		return fmt.Errorf("building content table: %w", err)
	}

	renderer, err := render.New(render.Config{
		Site: content.Site{
			Name:         cfg.SiteName,
			Tagline:      cfg.SiteTagline,
			ContactEmail: cfg.ContactEmail,
		},
		SiteURL: cfg.SiteURL(),
		LogoURL: cfg.LogoURL,
		Nav:     table.NavRoutes(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	upstream := fetcher.New(fetcher.Options{
		BaseURL:   cfg.UpstreamURL,
		Timeout:   cfg.FetchTimeout,
		Backoff:   cfg.FetchBackoff,
		UserAgent: info.UserAgent(),
		Logger:    logger,
	})
	extractor := extract.New(extract.DefaultRules(cfg.SiteDomain, cfg.DomainAliases, cfg.UpstreamHost()), table)

	bg := analytics.NewBackground(logger, backgroundTimeout)
	tracker := analytics.NewTracker(st, geo, bg)

	h := handler.New(handler.Config{
		Store:            st,
		Fetcher:          upstream,
		Extractor:        extractor,
		Tracker:          tracker,
		Table:            table,
		Renderer:         renderer,
		Logger:           logger,
		SiteURL:          cfg.SiteURL(),
		PassthroughPaths: cfg.PassthroughPaths,
		FaviconURL:       cfg.FaviconURL,
		LogoURL:          cfg.LogoURL,
		TrustedOrigins:   cfg.TrustedOrigins,
		IsDevelopment:    cfg.IsDevelopment(),
		MetricsEnabled:   cfg.MetricsEnabled,
		AccessLog:        cfg.IsDevelopment(),
	})

	if cfg.GeoIPEnabled() {
		if err := sched.AddFunc(geoIPReloadSchedule, "geoip reload", func(context.Context) error {
			return geo.Reload()
		}); err != nil {
			return err
		}
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           h.Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // two upstream attempts plus rendering
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env,
			"version", info.String(), "upstream", cfg.UpstreamURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serverErr:
		if ok {
			sched.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop()
	if err := bg.Wait(ctx); err != nil {
		slog.Warn("page view writes still pending at shutdown", "category", "analytics", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// openStore opens and migrates the database. Failures are logged and
// yield a Store without a database, so pages keep being served.
func openStore(cfg *config.Config) (*store.Store, func()) {
	dialect, err := store.DialectFor(cfg.DBDriver)
	if err != nil {
		slog.Error("database disabled", "category", "store", "error", err)
		return store.New(nil, store.SQLite), func() {}
	}

	if dialect.Name == store.SQLite.Name {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0o755); err != nil {
			slog.Error("creating data directory failed", "category", "store", "error", err)
		}
	}

	slog.Info("initializing database", "driver", dialect.Name)
	db, err := store.Open(dialect, cfg.DBDSN)
	if err != nil {
		slog.Error("database unavailable, persistence disabled", "category", "store", "error", err)
		return store.New(nil, dialect), func() {}
	}

	slog.Info("running database migrations")
	if err := store.Migrate(db, dialect); err != nil {
		slog.Error("migrations failed, persistence disabled", "category", "store", "error", err)
		_ = db.Close()
		return store.New(nil, dialect), func() {}
	}
	slog.Info("database ready")

	return store.New(db, dialect), func() { closeDB(db) }
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}
