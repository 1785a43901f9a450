package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
)

func init() {
	Register(&RmListCmd{})
}

// RmListCmd implements the rmlist command.
type RmListCmd struct {
	force bool
	yes   bool
}

// SetForce sets the force flag (for testing).
func (c *RmListCmd) SetForce(force bool) {
	c.force = force
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmListCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmListCmd) Name() string      { return "rmlist" }
func (c *RmListCmd) Aliases() []string { return nil }
func (c *RmListCmd) Synopsis() string  { return "Delete a task list" }
func (c *RmListCmd) Usage() string     { return "tasktracker rmlist [--force] [--yes] <list>" }
func (c *RmListCmd) NeedsAuth() bool   { return true }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	d, err := openDashboard(ctx, cfg, env, confirmer(c.yes, env.In, errOut))
	if err != nil {
		return report(errOut, err)
	}
	defer d.Close()

	list, err := resolveList(d.Store.Items(), strings.Join(args, " "))
	if err != nil {
		return report(errOut, err)
	}

	// Lists with open tasks need --force.
	if !c.force && hasOpenTasks(list) {
		fmt.Fprintln(errOut, "error: list not empty (use --force)")
		return exitcode.UserError
	}

	deleted, err := d.RequestDelete(ctx, list.ID)
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

// hasOpenTasks falls back to the derived counters when the server sent no tasks.
func hasOpenTasks(l service.TaskList) bool {
	if len(l.Tasks) == 0 {
		return l.Count > 0 && l.Progress < 1
	}
	for _, t := range l.Tasks {
		if t.Status == service.StatusOpen {
			return true
		}
	}
	return false
}
