package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/store"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string      { return "lists" }
func (c *ListsCmd) Aliases() []string { return []string{"ls"} }
func (c *ListsCmd) Synopsis() string  { return "Print all task lists with progress" }
func (c *ListsCmd) Usage() string     { return "tasktracker lists [common flags]" }
func (c *ListsCmd) NeedsAuth() bool   { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	d, err := openDashboard(ctx, cfg, env, store.NeverConfirm)
	if err != nil {
		return report(errOut, err)
	}
	defer d.Close()

	fmt.Fprint(out, d.Render())
	return exitcode.Success
}
