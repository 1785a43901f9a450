// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/logging"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "lists"

// ServiceFactory creates the backend for cfg. sess receives the
// session-ended event when the server rejects the credential.
type ServiceFactory func(ctx context.Context, cfg *config.Config, sess *session.Manager, logger *log.Logger) (*service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory

	// In supplies answers to interactive prompts. Nil declines them.
	In io.Reader

	// Sessions builds the session manager for cfg. Defaults to FileSession.
	Sessions func(cfg *config.Config) *session.Manager
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		Sessions: FileSession,
	}
}

// FileSession stores the credential in the config directory. The Google
// backend's credential is its OAuth token, so ending that session removes
// token.json.
func FileSession(cfg *config.Config) *session.Manager {
	path := cfg.SessionPath()
	if cfg.Backend == config.BackendGoogle {
		path = cfg.TokenPath()
	}
	return session.NewManager(session.NewFileStorage(path))
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command.
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configDir string
		quiet     bool
		debug     bool
	)
	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A leading dash left after parsing is a flag the parser did not consume.
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger, closeLog, err := d.logger(cmd, cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	defer closeLog()

	env := &commands.Env{
		Session: d.Sessions(cfg),
		Logger:  logger,
		In:      d.In,
	}

	if commands.NeedsBackend(cmd, cfg) {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		if cmd.NeedsAuth() {
			if code := checkAuth(cfg, env.Session, errOut); code != exitcode.Success {
				return code
			}
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.BackendError
		}
		env.Service, err = d.factory(ctx, cfg, env.Session, logger)
		if err != nil {
			logger.Debug("backend setup failed", "backend", cfg.Backend, "err", err)
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintln(errOut, "error: not logged in (run: tasktracker login)")
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	logger.Debug("dispatch", "command", cmd.Name(), "backend", cfg.Backend)
	return cmd.Run(ctx, cfg, env, positionalArgs, out, errOut)
}

// logger writes to errOut, or to the command's log file when it owns the
// terminal. The returned func closes the file.
func (d *Dispatcher) logger(cmd commands.Command, cfg *config.Config, errOut io.Writer) (*log.Logger, func(), error) {
	path := commands.LogPath(cmd, cfg)
	if path == "" {
		return logging.FromConfig(errOut, cfg.LogLevel, cfg.Debug), func() {}, nil
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		opts.Level = log.DebugLevel
	}
	opts.ReportTimestamp = true
	return logging.New(f, opts), func() { f.Close() }, nil
}

// checkAuth reports a missing credential before any request is made.
func checkAuth(cfg *config.Config, sess *session.Manager, errOut io.Writer) int {
	if cfg.Backend == config.BackendGoogle {
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
			return exitcode.AuthError
		}
		if !cfg.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: tasktracker login)")
			return exitcode.AuthError
		}
		return exitcode.Success
	}

	_, err := sess.Get()
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, session.ErrNoSession):
		fmt.Fprintln(errOut, "error: not logged in (run: tasktracker login)")
	default:
		fmt.Fprintf(errOut, "error: failed to read session: %s\n", err)
	}
	return exitcode.AuthError
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	errStr := err.Error()
	switch {
	case strings.HasPrefix(errStr, "flag needs an argument:"):
		return errStr
	case strings.HasPrefix(errStr, "flag provided but not defined:"):
		return "unknown flag: " + strings.TrimSpace(strings.TrimPrefix(errStr, "flag provided but not defined:"))
	}
	return errStr
}
