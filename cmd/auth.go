package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/urfave/cli/v3"
)

type userOutput struct {
	Username    string              `json:"username"`
	Role        models.Role         `json:"role"`
	Permissions []models.Permission `json:"permissions"`
}

// AuthLogin signs in once and prints the user. Nothing is persisted.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.login(ctx, cmd); err != nil {
		return err
	}
	defer r.session.Logout()

	user, _ := r.session.User()
	out := userOutput{Username: user.Username, Role: user.Role, Permissions: r.session.Permissions()}
	r.logger.Info("login successful", "username", out.Username, "role", out.Role)

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlain("✓ Signed in as %s (%s)\n", out.Username, out.Role)
	perms := make([]string, len(out.Permissions))
	for i, p := range out.Permissions {
		perms[i] = string(p)
	}
	return r.writePlain("Permissions: %s\n", strings.Join(perms, ", "))
}

// AuthCheck reports whether the user may open the section named by the permission argument.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	perm, err := models.ParsePermission(cmd.StringArg("permission"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if err := r.login(ctx, cmd); err != nil {
		return err
	}
	defer r.session.Logout()

	if !r.session.HasPermission(perm) {
		r.writePlain("✗ %s\n", perm)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, perm)
	}
	return r.writePlain("✓ %s\n", perm)
}
