package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry lists the commands to describe. Nil means DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasktracker help [command]" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	if len(args) > 0 {
		cmd, ok := reg.Find(args[0])
		if !ok {
			return report(errOut, userErrorf("unknown command: %s", args[0]))
		}
		fmt.Fprintf(out, "Usage:\n  %s\n\n%s.\n", cmd.Usage(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(out, "Aliases: %s\n", strings.Join(aliases, ", "))
		}
		return exitcode.Success
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  tasktracker [common flags] <command> [flags] [args]\n")
	fmt.Fprint(out, "  tasktracker    same as: tasktracker lists\n\n")

	fmt.Fprintln(out, "Commands:")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, cmd := range reg.All() {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Usage(), cmd.Synopsis())
	}
	tw.Flush()

	fmt.Fprint(out, helpTrailer)
	return exitcode.Success
}

const helpTrailer = `
A <list> is a list ID or title. A <ref> is <list>/<task-id>, <list> <task-id>,
or <task-id> with --list.

Task flags:
  --description <text>           Task description
  --due <YYYY-MM-DD>             Due date; --due= clears it
  --priority <LOW|MEDIUM|HIGH>   Default MEDIUM
  --status <OPEN|CLOSED>         Default OPEN

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKTRACKER_API_URL     REST API base URL
  TASKTRACKER_BACKEND     rest (default) or google
  TASKTRACKER_TIMEOUT     Per-request timeout, e.g. 5s
  TASKTRACKER_LOG_LEVEL   debug, info, warn (default) or error
  TASKTRACKER_PASSWORD    Password for login and register
`
