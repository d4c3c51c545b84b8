package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/gestaopro/internal/repositories"
	"github.com/desertthunder/gestaopro/internal/server"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the dashboard gateway until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	router := r.newRouter(repositories.NewAlertSettingsRepository(db), repositories.NewAudioRepository(db))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Addr()
	statusURL := fmt.Sprintf("http://%s%s", addr, server.DashboardPath)
	ready := func() {
		r.writePlain("→ Dashboard gateway listening on http://%s\n", addr)
		if !cmd.Bool("open") {
			return
		}
		if err := shared.OpenBrowser(statusURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlain("Please open this URL in your browser:\n%s\n", statusURL)
		}
	}

	return server.Serve(ctx, addr, router, r.logger, ready)
}

// newRouter mounts the dashboard behind the request logger.
func (r *Runner) newRouter(alerts server.AlertStore, audio server.AudioStore) *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewDashboard(server.DashboardOpts{
		Session: r.session,
		Backend: r.backend,
		Alerts:  alerts,
		Audio:   audio,
		Logger:  r.logger,
	}))
	return router
}
