package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gestaopro/internal/formatter"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/urfave/cli/v3"
)

// EntityList prints every record of a section in the requested format.
func (r *Runner) EntityList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	section, err := r.authorize(ctx, cmd, cmd.StringArg("section"))
	if err != nil {
		return err
	}

	entity := models.EntityForPermission(section)
	r.logger.Debug("listing records", "entity", entity)

	records, err := r.backend.List(ctx, entity)
	if err != nil {
		return fmt.Errorf("%s: %w", shared.UserMessage(err), err)
	}

	data, err := formatter.Render(format, section.Title(), records)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// EntityCreate inserts the --data object into a section.
func (r *Runner) EntityCreate(ctx context.Context, cmd *cli.Command) error {
	data, err := decodeData(cmd.String("data"))
	if err != nil {
		return err
	}

	section, err := r.authorize(ctx, cmd, cmd.StringArg("section"))
	if err != nil {
		return err
	}

	created, err := r.backend.Create(ctx, models.EntityForPermission(section), data)
	if err != nil {
		return fmt.Errorf("%s: %w", shared.UserMessage(err), err)
	}

	r.logger.Info("record created", "section", section, "id", created.ID())
	return r.writeJSON(created, true)
}

// EntityUpdate applies the --data object to the record with the given id.
func (r *Runner) EntityUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: record id is required", shared.ErrMissingArgument)
	}

	data, err := decodeData(cmd.String("data"))
	if err != nil {
		return err
	}

	section, err := r.authorize(ctx, cmd, cmd.StringArg("section"))
	if err != nil {
		return err
	}

	updated, err := r.backend.Update(ctx, models.EntityForPermission(section), id, data)
	if err != nil {
		return fmt.Errorf("%s: %w", shared.UserMessage(err), err)
	}

	r.logger.Info("record updated", "section", section, "id", id)
	return r.writeJSON(updated, true)
}

// EntityDelete removes the record with the given id.
func (r *Runner) EntityDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: record id is required", shared.ErrMissingArgument)
	}

	section, err := r.authorize(ctx, cmd, cmd.StringArg("section"))
	if err != nil {
		return err
	}

	if err := r.backend.Delete(ctx, models.EntityForPermission(section), id); err != nil {
		return fmt.Errorf("%s: %w", shared.UserMessage(err), err)
	}

	r.logger.Info("record deleted", "section", section, "id", id)
	return r.writePlain("✓ Deleted %s %s\n", section, id)
}
