package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/cofacts/factagent/trace"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the agent HTTP service",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("FACTAGENT_ADDR"),
				Usage:   "Server listen address",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := newLogger(cmd.String("log-level"))
			slog.SetDefault(logger)

			shutdown, err := trace.Setup(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.Warn("failed to shut down trace exporter", "error", err)
				}
			}()

			factCheck, secretary, err := buildTeams(ctx, cmd, logger)
			if err != nil {
				return err
			}

			s := newServer(
				withAddr(cmd.String("addr")),
				withFactCheckTeam(factCheck),
				withSecretaryTeam(secretary),
				withLogger(logger),
			)
			return s.start(ctx)
		},
	}
}
