package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/store"
)

func init() {
	Register(&EditListCmd{})
}

// EditListCmd implements the editlist command.
type EditListCmd struct {
	fields listFields
}

func (c *EditListCmd) Name() string      { return "editlist" }
func (c *EditListCmd) Aliases() []string { return []string{"renamelist"} }
func (c *EditListCmd) Synopsis() string  { return "Change the title or description of a list" }
func (c *EditListCmd) Usage() string {
	return "tasktracker editlist [common flags] [--title <title>] [--description <text>] <list>"
}
func (c *EditListCmd) NeedsAuth() bool { return true }

func (c *EditListCmd) RegisterFlags(fs *flag.FlagSet) {
	c.fields.register(fs, true)
}

func (c *EditListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if !c.fields.title.set && !c.fields.description.set {
		return report(errOut, userErrorf("nothing to change (use --title or --description)"))
	}

	d, err := openDashboard(ctx, cfg, env, store.NeverConfirm)
	if err != nil {
		return report(errOut, err)
	}
	defer d.Close()

	list, err := resolveList(d.Store.Items(), strings.Join(args, " "))
	if err != nil {
		return report(errOut, err)
	}
	if err := d.StartEdit(list.ID); err != nil {
		return report(errOut, err)
	}
	c.fields.apply(&d.Editor.Form)

	if err := d.Submit(ctx); err != nil {
		return report(errOut, submitError(d.Editor.Invalid, err))
	}
	return ok(cfg, out)
}
