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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	listName string
	yes      bool
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return nil }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "tasktracker rm [--list <list>] [--yes] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := parseTaskRef(args, c.listName)
	if err != nil {
		return report(errOut, err)
	}

	v, err := openList(ctx, cfg, env, ref.List, confirmer(c.yes, env.In, errOut))
	if err != nil {
		return report(errOut, err)
	}
	defer v.Close()

	if _, err := findTask(v, ref.Task); err != nil {
		return report(errOut, err)
	}

	deleted, err := v.RequestDelete(ctx, ref.Task)
	if err != nil {
		return report(errOut, err)
	}
	if !deleted {
		if !cfg.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}
	return ok(cfg, out)
}
