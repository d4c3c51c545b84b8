package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/repositories"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/desertthunder/gestaopro/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AlertsShow prints the saved alert settings, or the defaults when none are saved.
func (r *Runner) AlertsShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	settings, err := repositories.NewAlertSettingsRepository(db).Get()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(settings, true)
	}

	r.writePlain("Mode:     %s\n", settings.Mode)
	if settings.Mode == models.AlertInterval {
		r.writePlain("Interval: %d minutes\n", settings.IntervalMinutes)
	}
	r.writePlain("Audio:    %s\n", settings.AudioName)
	return r.writePlain("URL:      %s\n", r.backend.ResolveAudioURL(settings.AudioName))
}

// AlertsSet merges the given flags over the saved settings and stores the result.
func (r *Runner) AlertsSet(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewAlertSettingsRepository(db)
	settings, err := repo.Get()
	if err != nil {
		return err
	}

	if cmd.IsSet("mode") {
		mode, err := models.ParseAlertMode(cmd.String("mode"))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		settings.Mode = mode
	}
	if cmd.IsSet("interval") {
		settings.IntervalMinutes = int(cmd.Int("interval"))
	}
	if cmd.IsSet("audio") {
		settings.AudioName = cmd.String("audio")
	}

	if err := repo.Save(settings); err != nil {
		return err
	}

	r.logger.Info("alert settings saved", "mode", settings.Mode)
	return r.writePlain("✓ Alerts set to %s\n", settings.Mode)
}

// AlertsWatch plays alerts in the terminal, as a bell plus the audio URL, until interrupted.
// On-order mode polls marketplace orders and so signs in first.
func (r *Runner) AlertsWatch(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openStore()
	if err != nil {
		return err
	}
	settings, err := repositories.NewAlertSettingsRepository(db).Get()
	db.Close()
	if err != nil {
		return err
	}

	if settings.Mode == models.AlertDisabled {
		return r.writePlain("Sound alerts are disabled. Enable them with 'gestaopro alerts set --mode'.\n")
	}

	if settings.Mode == models.AlertOnOrder {
		if err := r.login(ctx, cmd); err != nil {
			return err
		}
		defer r.session.Logout()
		if !r.session.HasPermission(models.PermMarketplaceOrders) {
			return fmt.Errorf("%w: %s", shared.ErrForbidden, models.PermMarketplaceOrders)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := tasks.NewAlertWatcher(tasks.AlertWatcherOpts{
		Backend:      r.backend,
		Notifier:     tasks.NotifierFunc(r.notifyTerminal),
		Logger:       r.logger,
		PollInterval: time.Duration(r.config.Alerts.PollSeconds) * time.Second,
	})

	r.writePlain("Watching for alerts (%s). Press Ctrl+C to stop.\n", settings.Mode)
	if err := watcher.Run(ctx, *settings); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (r *Runner) notifyTerminal(ctx context.Context, event tasks.AlertEvent) error {
	at := event.At.Local().Format("15:04:05")
	if event.NewOrders > 0 {
		return r.writePlain("\a[%s] %d new order(s): %s\n", at, event.NewOrders, event.AudioURL)
	}
	return r.writePlain("\a[%s] %s\n", at, event.AudioURL)
}
