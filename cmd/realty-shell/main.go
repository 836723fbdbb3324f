package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/lborres/realty/internal/shell"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var explicit shell.Config

	fs := pflag.NewFlagSet("realty-shell", pflag.ContinueOnError)
	fs.StringVar(&explicit.APIURL, "api-url", "", "server base URL (env "+shell.EnvAPIURL+")")
	fs.DurationVar(&explicit.AdvisorTimeout, "advisor-timeout", 0, "client-side limit for AI requests (env "+shell.EnvAdvisorTimeout+")")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := shell.ResolveConfig(explicit, os.Getenv)
	if err != nil {
		return err
	}

	api, err := shell.NewAPIClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := shell.New(api)
	s.Boot(ctx)
	fmt.Printf("Connected to %s (%s)\n", cfg.APIURL, s.State())

	repl := shell.NewREPL(s, os.Stdin, os.Stdout)
	if shell.IsTerminal() {
		repl.ReadPassword = shell.ReadTerminalPassword
	}
	if err := repl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
