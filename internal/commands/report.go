package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/store"
	"tasktracker/internal/transport"
)

// userError is a mistake in the command line or its arguments.
type userError struct {
	msg string
}

func (e *userError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

// report prints err and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	var ue *userError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &ue):
		fmt.Fprintf(errOut, "error: %s\n", ue.msg)
		return exitcode.UserError
	case transport.IsUnauthorized(err):
		fmt.Fprintln(errOut, "error: session expired (run: tasktracker login)")
		return exitcode.AuthError
	case transport.IsNotFound(err), errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: not found: %v\n", err)
		return exitcode.UserError
	case transport.StatusCode(err) == 400 || transport.StatusCode(err) == 422:
		fmt.Fprintf(errOut, "error: rejected by server: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// ok prints the success marker unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// formatter returns the plain formatter used for command output.
func formatter(cfg *config.Config) output.Formatter {
	return output.Plain(cfg.DateFormat)
}

// confirmer returns a Confirmer that asks on errOut and reads the answer
// from in. yes skips the prompt.
func confirmer(yes bool, in io.Reader, errOut io.Writer) store.Confirmer {
	if yes {
		return store.AlwaysConfirm
	}
	if in == nil {
		return store.NeverConfirm
	}
	r := bufio.NewReader(in)
	return store.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(errOut, "%s [y/N] ", prompt)
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// prompt asks for one line of input.
func prompt(r *bufio.Reader, errOut io.Writer, label string) (string, error) {
	fmt.Fprintf(errOut, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", userErrorf("%s required", strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}
