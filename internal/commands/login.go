package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
	"tasktracker/internal/transport"
)

// EnvPassword supplies the password for login and register without a prompt.
const EnvPassword = "TASKTRACKER_PASSWORD"

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string {
	return "tasktracker login [common flags] [--username <name>] [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

// NeedsBackend reports whether login talks to the REST API.
// The Google backend signs in through the browser instead.
func (c *LoginCmd) NeedsBackend(cfg *config.Config) bool {
	return cfg.Backend != config.BackendGoogle
}

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if cfg.Backend == config.BackendGoogle {
		return googleLogin(ctx, cfg, out, errOut)
	}
	if env.Service == nil || env.Service.Auth == nil {
		fmt.Fprintln(errOut, "error: login is not supported by this backend")
		return exitcode.AuthError
	}

	// A stored session the server still accepts needs no new login.
	if c.username == "" {
		if _, err := env.Session.Get(); err == nil {
			if user, err := env.Service.Auth.Me(ctx); err == nil {
				if !cfg.Quiet {
					fmt.Fprintf(out, "already logged in as %s\n", user.Username)
				}
				return exitcode.Success
			}
		}
	}

	creds, err := c.credentials(env, errOut)
	if err != nil {
		return report(errOut, err)
	}

	res, err := env.Service.Auth.Login(ctx, creds)
	if err != nil {
		if isRejectedCredentials(err) {
			fmt.Fprintln(errOut, "error: invalid username or password")
			return exitcode.AuthError
		}
		return report(errOut, err)
	}
	return storeSession(cfg, env, res, creds.Username, "logged in as", out, errOut)
}

func (c *LoginCmd) credentials(env *Env, errOut io.Writer) (service.Credentials, error) {
	r := bufio.NewReader(inputOf(env))
	creds := service.Credentials{
		Username: strings.TrimSpace(c.username),
		Password: c.password,
	}
	var err error
	if creds.Username == "" {
		if creds.Username, err = prompt(r, errOut, "Username"); err != nil {
			return creds, err
		}
	}
	if creds.Password == "" {
		creds.Password = os.Getenv(EnvPassword)
	}
	if creds.Password == "" {
		if creds.Password, err = prompt(r, errOut, "Password"); err != nil {
			return creds, err
		}
	}
	if creds.Username == "" || creds.Password == "" {
		return creds, userErrorf("username and password required")
	}
	return creds, nil
}

// storeSession saves the token returned by login or register.
func storeSession(cfg *config.Config, env *Env, res service.AuthResult, username, verb string, out, errOut io.Writer) int {
	if res.User.Username == "" {
		res.User.Username = username
	}
	s := session.Session{Token: res.Token, User: res.User}
	if err := env.Session.Set(s); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "%s %s\n", verb, s.Username())
	}
	return exitcode.Success
}

func isRejectedCredentials(err error) bool {
	switch transport.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
		return true
	}
	return false
}

func inputOf(env *Env) io.Reader {
	if env.In == nil {
		return strings.NewReader("")
	}
	return env.In
}
