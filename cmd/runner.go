package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/session"
	"github.com/desertthunder/gestaopro/internal/shared"
	"github.com/urfave/cli/v3"
)

// Environment variables read by the credential flags.
const (
	EnvUsername = "GESTAOPRO_USERNAME"
	EnvPassword = "GESTAOPRO_PASSWORD"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	backend    services.Backend
	session    *session.Session
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    services.Backend
	Session    *session.Session
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without a Backend, one is built from the config's backend section. HTTPClient replaces the
// client it would build from backend.request_timeout.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Backend == nil {
		if opts.HTTPClient == nil {
			opts.Backend = services.FromConfig(opts.Config.Backend)
		} else {
			opts.Backend = services.NewExternalServer(services.ExternalServerOpts{
				BaseURL:   opts.Config.Backend.BaseURL,
				APIPath:   opts.Config.Backend.APIPath,
				AudioPath: opts.Config.Backend.AudioPath,
			}, opts.HTTPClient)
		}
	}
	if opts.Session == nil {
		opts.Session = session.New(opts.Backend, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		session:    opts.Session,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// app builds the root command. The --debug flag lowers the log level before any subcommand runs.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "gestaopro",
		Usage:   "Work with the GestaoPro management backend from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(r.logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, entityCommand, audioCommand, alertsCommand, backupCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openStore opens the local settings store and runs pending migrations.
func (r *Runner) openStore() (*sql.DB, error) {
	db, err := shared.OpenStore(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return db, nil
}

// login signs in with the credential flags of cmd.
func (r *Runner) login(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("%w: --username and --password (or %s and %s) are required", shared.ErrMissingArgument, EnvUsername, EnvPassword)
	}

	if !r.session.Login(ctx, username, password) {
		return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, shared.MessageFor(shared.OpLogin))
	}
	return nil
}

// authorize signs in and checks that the user may open the section named by arg.
//
// Only sections backed by an entity are accepted.
func (r *Runner) authorize(ctx context.Context, cmd *cli.Command, arg string) (models.Permission, error) {
	section, err := models.ParsePermission(arg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if !section.HasRecords() {
		return "", fmt.Errorf("%w: section %q has no records", shared.ErrInvalidArgument, section)
	}

	if err := r.login(ctx, cmd); err != nil {
		return "", err
	}
	if !r.session.HasPermission(section) {
		return "", fmt.Errorf("%w: %s", shared.ErrForbidden, section)
	}
	return section, nil
}

// credentialFlags are shared by every command that talks to the backend on behalf of a user.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Dashboard username",
			Sources: cli.EnvVars(EnvUsername),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Dashboard password",
			Sources: cli.EnvVars(EnvPassword),
		},
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// decodeData parses the --data flag as a JSON object.
func decodeData(raw string) (models.Record, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: --data is required", shared.ErrMissingArgument)
	}
	if err := shared.ValidateJSON([]byte(raw)); err != nil {
		return nil, err
	}

	var record models.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record == nil {
		return nil, fmt.Errorf("%w: --data must be a JSON object", shared.ErrInvalidInput)
	}
	return record, nil
}
