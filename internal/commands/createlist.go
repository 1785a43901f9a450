package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/store"
	"tasktracker/internal/view"
)

func init() {
	Register(&CreateListCmd{})
}

// CreateListCmd implements the createlist command.
type CreateListCmd struct {
	fields listFields
}

func (c *CreateListCmd) Name() string      { return "createlist" }
func (c *CreateListCmd) Aliases() []string { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string  { return "Create a new task list" }
func (c *CreateListCmd) Usage() string {
	return "tasktracker createlist [common flags] [--description <text>] <title...>"
}
func (c *CreateListCmd) NeedsAuth() bool { return true }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.fields.register(fs, false)
}

func (c *CreateListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	d := view.NewDashboard(env.Service, store.NeverConfirm, formatter(cfg), env.Logger)
	defer d.Close()

	d.StartCreate()
	d.Editor.Form.Title = strings.Join(args, " ")
	c.fields.apply(&d.Editor.Form)

	if err := d.Submit(ctx); err != nil {
		return report(errOut, submitError(d.Editor.Invalid, err))
	}
	return ok(cfg, out)
}
