package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gestaopro/internal/formatter"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/tasks"
	"github.com/urfave/cli/v3"
)

// BackupRun copies every section the user may open to local files.
//
// Flags left unset take the [backup] section of the config.
func (r *Runner) BackupRun(ctx context.Context, cmd *cli.Command) error {
	formatName := r.config.Backup.Format
	if cmd.IsSet("format") {
		formatName = cmd.String("format")
	}
	format, err := formatter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	opts := tasks.BackupOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: r.config.Backup.Workers,
		RateLimit:  r.config.Backup.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	if err := r.login(ctx, cmd); err != nil {
		return err
	}
	defer r.session.Logout()

	entities := r.backupEntities()
	if len(entities) == 0 {
		return r.writePlain("Nothing to back up: the account has no sections with records.\n")
	}

	r.logger.Info("starting backup", "entities", len(entities), "format", format)
	r.writePlain("Backing up %d entities...\n\n", len(entities))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchEntity:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.WriteBackup:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	engine := tasks.NewBackupEngine(r.backend, r.logger)
	result, err := engine.Run(ctx, progressCh, entities, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Backup Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Format: %s\n", result.Format)
	r.writePlain("Entities: %d/%d succeeded\n", result.Successful, result.TotalEntities)

	if result.Failed > 0 {
		r.writePlain("\nFailed entities:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.Entity, res.ErrorMsg)
			}
		}
		return fmt.Errorf("%d of %d entities failed", result.Failed, result.TotalEntities)
	}
	return nil
}

// backupEntities returns the entities behind the signed-in user's sections.
func (r *Runner) backupEntities() []string {
	if user, ok := r.session.User(); ok && user.IsAdmin() {
		return tasks.BackupEntities()
	}

	entities := []string{}
	for _, p := range r.session.Permissions() {
		if p.HasRecords() {
			entities = append(entities, models.EntityForPermission(p))
		}
	}
	return entities
}
