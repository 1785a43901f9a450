package commands

import (
	"context"
	"flag"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
	"tasktracker/internal/store"
)

func init() {
	Register(&DoneCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd implements the done command. Closing a closed task is a no-op.
type DoneCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *DoneCmd) SetListName(name string) {
	c.listName = name
}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"close"} }
func (c *DoneCmd) Synopsis() string  { return "Mark a task closed" }
func (c *DoneCmd) Usage() string     { return "tasktracker done [--list <list>] <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runToggle(ctx, cfg, env, c.listName, args, service.StatusOpen, out, errOut)
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct {
	listName string
}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return nil }
func (c *ToggleCmd) Synopsis() string  { return "Flip a task between open and closed" }
func (c *ToggleCmd) Usage() string     { return "tasktracker toggle [--list <list>] <ref>" }
func (c *ToggleCmd) NeedsAuth() bool   { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runToggle(ctx, cfg, env, c.listName, args, "", out, errOut)
}

// runToggle flips the referenced task. When only is set, tasks in any
// other status are left unchanged.
func runToggle(ctx context.Context, cfg *config.Config, env *Env, listName string, args []string, only service.Status, out, errOut io.Writer) int {
	ref, err := parseTaskRef(args, listName)
	if err != nil {
		return report(errOut, err)
	}

	v, err := openList(ctx, cfg, env, ref.List, store.NeverConfirm)
	if err != nil {
		return report(errOut, err)
	}
	defer v.Close()

	task, err := findTask(v, ref.Task)
	if err != nil {
		return report(errOut, err)
	}
	if only != "" && task.Status != only {
		return ok(cfg, out)
	}
	if err := v.Toggle(ctx, ref.Task); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
