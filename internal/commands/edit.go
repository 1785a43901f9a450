package commands

import (
	"context"
	"flag"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/store"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the given fields change;
// the full task is still sent.
type EditCmd struct {
	listName string
	fields   taskFields
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "tasktracker edit [--list <list>] [--title <title>] [--description <text>] [--due YYYY-MM-DD] [--priority P] [--status S] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	c.fields.register(fs, true)
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := parseTaskRef(args, c.listName)
	if err != nil {
		return report(errOut, err)
	}

	v, err := openList(ctx, cfg, env, ref.List, store.NeverConfirm)
	if err != nil {
		return report(errOut, err)
	}
	defer v.Close()

	if _, err := findTask(v, ref.Task); err != nil {
		return report(errOut, err)
	}
	if err := v.StartEdit(ref.Task); err != nil {
		return report(errOut, err)
	}
	if err := c.fields.apply(&v.Editor.Form); err != nil {
		return report(errOut, err)
	}

	if err := v.Submit(ctx); err != nil {
		return report(errOut, submitError(v.Editor.Invalid, err))
	}
	return ok(cfg, out)
}
