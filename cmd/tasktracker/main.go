// Package main is the entry point for the tasktracker CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"tasktracker/internal/backend/googletasks"
	"tasktracker/internal/backend/rest"
	"tasktracker/internal/cli"
	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
	"tasktracker/internal/transport"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService)
	dispatcher.In = os.Stdin

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newService builds the configured backend. Both report a rejected
// credential to sess, which clears it and notifies subscribers.
func newService(ctx context.Context, cfg *config.Config, sess *session.Manager, logger *log.Logger) (*service.Service, error) {
	if cfg.Backend == config.BackendGoogle {
		c, err := googletasks.New(ctx, cfg, func() {
			if err := sess.End(session.ReasonUnauthorized); err != nil {
				logger.Warn("failed to remove token", "err", err)
			}
		}, logger)
		if err != nil {
			return nil, err
		}
		return c.Service(), nil
	}

	client := transport.New(transport.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		Session: sess,
		Logger:  logger,
	})
	return rest.New(client), nil
}
