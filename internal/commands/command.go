// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/charmbracelet/log"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a stored session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// env.Service is nil unless NeedsBackend reports true for the command and cfg.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}

// Env carries what a command runs against.
type Env struct {
	// Service is the backend. Nil for commands that never call it.
	Service *service.Service

	// Session holds the stored credential.
	Session *session.Manager

	// Logger is never nil once the dispatcher has built the Env.
	Logger *log.Logger

	// In supplies answers to interactive prompts.
	In io.Reader
}

// backendCommand is implemented by commands that call the backend
// without requiring a stored session, such as login and register.
type backendCommand interface {
	NeedsBackend(cfg *config.Config) bool
}

// NeedsBackend reports whether c calls the backend under cfg.
func NeedsBackend(c Command, cfg *config.Config) bool {
	if c.NeedsAuth() {
		return true
	}
	bc, ok := c.(backendCommand)
	return ok && bc.NeedsBackend(cfg)
}

// logFileCommand is implemented by commands that own the terminal and
// need their logs written elsewhere.
type logFileCommand interface {
	LogPath(cfg *config.Config) string
}

// LogPath returns the file c logs to, or "" for stderr.
func LogPath(c Command, cfg *config.Config) string {
	if lc, ok := c.(logFileCommand); ok {
		return lc.LogPath(cfg)
	}
	return ""
}
