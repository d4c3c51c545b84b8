package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"text/tabwriter"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/repositories"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/urfave/cli/v3"
)

// AudioURL prints where an audio file is served. A recorded upload with an absolute URL wins
// over the URL built from the backend's audio path.
func (r *Runner) AudioURL(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: audio name is required", shared.ErrMissingArgument)
	}

	if receipt := r.lookupReceipt(name); receipt != nil {
		if u, err := url.Parse(receipt.URL); err == nil && u.IsAbs() {
			return r.writePlain("%s\n", receipt.URL)
		}
	}
	return r.writePlain("%s\n", r.backend.ResolveAudioURL(name))
}

func (r *Runner) lookupReceipt(name string) *models.AudioFile {
	db, err := r.openStore()
	if err != nil {
		r.logger.Debug("settings store unavailable", "error", err)
		return nil
	}
	defer db.Close()

	receipt, err := repositories.NewAudioRepository(db).GetByName(name)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			r.logger.Debug("failed to look up upload", "name", name, "error", err)
		}
		return nil
	}
	return receipt
}

// AudioUpload sends a local file to the backend and records where it is served.
func (r *Runner) AudioUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}

	if err := r.login(ctx, cmd); err != nil {
		return err
	}
	defer r.session.Logout()

	name := filepath.Base(path)
	r.logger.Info("uploading audio", "file", name, "bytes", len(data))

	res, err := r.backend.UploadAudio(ctx, name, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", shared.UserMessage(err), err)
	}

	receipt := &models.AudioFile{Name: name, URL: res.URL}
	if db, err := r.openStore(); err != nil {
		r.logger.Warn("upload not recorded", "error", err)
	} else {
		defer db.Close()
		if err := repositories.NewAudioRepository(db).Create(receipt); err != nil {
			r.logger.Warn("upload not recorded", "error", err)
		}
	}

	r.writePlain("✓ Uploaded %s\n", name)
	return r.writePlain("URL: %s\n", res.URL)
}

// AudioDelete forgets a recorded upload. The file stays on the backend.
func (r *Runner) AudioDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: receipt id is required", shared.ErrMissingArgument)
	}

	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewAudioRepository(db)
	receipt, err := repo.Get(id)
	if err != nil {
		return err
	}
	if err := repo.Delete(id); err != nil {
		return err
	}

	r.logger.Info("upload receipt removed", "id", id, "name", receipt.Name)
	return r.writePlain("✓ Removed %s (%s)\n", receipt.Name, id)
}

// AudioList prints the recorded uploads, oldest first.
func (r *Runner) AudioList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	files, err := repositories.NewAudioRepository(db).List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(files, true)
	}

	if len(files) == 0 {
		return r.writePlain("No uploads recorded.\n")
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tURL\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, f.URL, f.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
