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
	"tasktracker/internal/transport"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	username string
	email    string
	password string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string {
	return "tasktracker register [common flags] [--username <name>] [--email <email>] [--password <password>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

// NeedsBackend reports whether the backend has an account endpoint.
func (c *RegisterCmd) NeedsBackend(cfg *config.Config) bool {
	return cfg.Backend != config.BackendGoogle
}

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if env == nil || env.Service == nil || env.Service.Auth == nil {
		fmt.Fprintln(errOut, "error: register is not supported by this backend")
		return exitcode.UserError
	}

	reg, err := c.registration(env, errOut)
	if err != nil {
		return report(errOut, err)
	}

	res, err := env.Service.Auth.Register(ctx, reg)
	if err != nil {
		if transport.StatusCode(err) == http.StatusConflict {
			fmt.Fprintf(errOut, "error: username already taken: %s\n", reg.Username)
			return exitcode.UserError
		}
		return report(errOut, err)
	}
	return storeSession(cfg, env, res, reg.Username, "registered as", out, errOut)
}

func (c *RegisterCmd) registration(env *Env, errOut io.Writer) (service.Registration, error) {
	r := bufio.NewReader(inputOf(env))
	reg := service.Registration{
		Username: strings.TrimSpace(c.username),
		Email:    strings.TrimSpace(c.email),
		Password: c.password,
	}
	var err error
	if reg.Username == "" {
		if reg.Username, err = prompt(r, errOut, "Username"); err != nil {
			return reg, err
		}
	}
	if reg.Password == "" {
		reg.Password = os.Getenv(EnvPassword)
	}
	if reg.Password == "" {
		if reg.Password, err = prompt(r, errOut, "Password"); err != nil {
			return reg, err
		}
	}
	if reg.Username == "" || reg.Password == "" {
		return reg, userErrorf("username and password required")
	}
	return reg, nil
}
