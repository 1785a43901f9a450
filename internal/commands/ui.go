package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd implements the ui command.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Open the interactive terminal UI" }
func (c *UICmd) Usage() string     { return "tasktracker ui [common flags]" }
func (c *UICmd) NeedsAuth() bool   { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

// LogPath sends logs to a file while the UI owns the terminal.
func (c *UICmd) LogPath(cfg *config.Config) string {
	return cfg.TUILogPath()
}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return report(errOut, userErrorf("unexpected argument: %s", args[0]))
	}

	err := tui.Run(ctx, tui.Options{
		Service:    env.Service,
		Session:    env.Session,
		Logger:     env.Logger,
		DateLayout: cfg.DateFormat,
	})
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, tui.ErrSessionEnded):
		fmt.Fprintln(errOut, "error: session expired (run: tasktracker login)")
		return exitcode.AuthError
	case errors.Is(err, context.Canceled):
		return exitcode.Success
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
}
