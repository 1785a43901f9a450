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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listName string
	fields   taskFields
}

// SetListName sets the list name (for testing).
func (c *AddCmd) SetListName(name string) {
	c.listName = name
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "tasktracker add [--list <list>] [--description <text>] [--due YYYY-MM-DD] [--priority LOW|MEDIUM|HIGH] [--status OPEN|CLOSED] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	c.fields.register(fs, false)
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return report(errOut, userErrorf("title required"))
	}

	v, err := openList(ctx, cfg, env, c.listName, store.NeverConfirm)
	if err != nil {
		return report(errOut, err)
	}
	defer v.Close()

	v.StartCreate()
	v.Editor.Form.Title = title
	if err := c.fields.apply(&v.Editor.Form); err != nil {
		return report(errOut, err)
	}

	if err := v.Submit(ctx); err != nil {
		return report(errOut, submitError(v.Editor.Invalid, err))
	}
	return ok(cfg, out)
}
