package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/cofacts/factagent/trace"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Run a single agent turn from the command line",
		ArgsUsage: "<message>",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "agent",
				Value:   "factcheck",
				Sources: cli.EnvVars("FACTAGENT_AGENT"),
				Usage:   "Agent to talk to (factcheck or secretary)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			message := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if message == "" {
				return goerr.New("message is required")
			}

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

			ctx = trace.NewConversation(ctx)
			if trace.DetectConversationStart(message) {
				trace.SetConversationType(ctx, trace.ClassifyConversation(message))
			}

			var reply string
			switch agent := cmd.String("agent"); agent {
			case "factcheck":
				reply, err = factCheck.FactCheck(ctx, message)
			case "secretary":
				reply, err = secretary.Chat(ctx, message)
			default:
				return goerr.New("unknown agent", goerr.V("agent", agent))
			}
			if err != nil {
				// The degraded reply still carries the conversation id.
				fmt.Println(reply)
				return err
			}

			fmt.Println(reply)
			return nil
		},
	}
}
