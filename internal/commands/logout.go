package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "tasktracker logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	loggedIn, err := hasSession(cfg, env)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read session: %v\n", err)
		return exitcode.AuthError
	}
	if !loggedIn {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := env.Session.End(session.ReasonLogout); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}

// hasSession reports whether credentials are stored for the configured backend.
// Google keeps an OAuth token rather than a session.
func hasSession(cfg *config.Config, env *Env) (bool, error) {
	if cfg.Backend == config.BackendGoogle {
		return cfg.HasToken(), nil
	}
	if env == nil || env.Session == nil {
		return false, nil
	}
	_, err := env.Session.Get()
	if errors.Is(err, session.ErrNoSession) {
		return false, nil
	}
	return err == nil, err
}
