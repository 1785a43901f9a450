package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/store"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	filter string
}

// SetFilter sets the filter (for testing).
func (c *ShowCmd) SetFilter(filter string) {
	c.filter = filter
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"list"} }
func (c *ShowCmd) Synopsis() string  { return "Print the tasks of a list" }
func (c *ShowCmd) Usage() string {
	return "tasktracker show [common flags] [--filter all|open|closed] <list>"
}
func (c *ShowCmd) NeedsAuth() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	filter, err := store.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	v, err := openList(ctx, cfg, env, strings.Join(args, " "), store.NeverConfirm)
	if err != nil {
		return report(errOut, err)
	}
	defer v.Close()

	v.SetFilter(filter)
	fmt.Fprint(out, v.Render())
	return exitcode.Success
}
