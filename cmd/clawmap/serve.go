package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/clawmap/internal/db"
	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/metrics"
	"github.com/vbonduro/clawmap/internal/refresh"
	"github.com/vbonduro/clawmap/internal/web"
	"github.com/vbonduro/clawmap/internal/web/templates"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// The local database holds accounts for every backend and the spot
		// tables for the sqlite backend.
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()

		m := metrics.New()
		app, err := newApp(cfg, database, m, logger)
		if err != nil {
			return err
		}
		if err := app.LoadAll(ctx); err != nil {
			logger.Warn("initial load incomplete", "error", err)
		}

		if cfg.RefreshInterval > 0 {
			worker := refresh.NewWorker(app, cfg.RefreshInterval, m, logger)
			worker.Start()
			defer worker.Stop()
		}

		auth := identity.NewService(
			identity.NewUserStore(database),
			identity.NewTokens(cfg.JWTSecret, cfg.SessionTTL),
			logger,
		)
		server := web.NewServer(app, auth, m, templates.FS, logger)

		if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
