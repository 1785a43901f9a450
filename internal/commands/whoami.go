package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Print the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "tasktracker whoami [common flags]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env.Service.Auth == nil {
		fmt.Fprintln(out, "signed in with Google")
		return exitcode.Success
	}

	user, err := env.Service.Auth.Me(ctx)
	if err != nil {
		return report(errOut, err)
	}
	name := user.Username
	if name == "" {
		if s, err := env.Session.Get(); err == nil {
			name = s.Username()
		}
	}
	if user.Email != "" {
		fmt.Fprintf(out, "%s <%s>\n", name, user.Email)
	} else {
		fmt.Fprintln(out, name)
	}
	return exitcode.Success
}
