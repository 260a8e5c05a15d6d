package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// Missing .env is fine; credentials may come from the environment.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "factagent",
		Usage: "Cofacts fact-checking agent service",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "llm",
			Value:   "gemini",
			Sources: cli.EnvVars("FACTAGENT_LLM"),
			Usage:   "LLM backend (gemini or openai)",
		},
		&cli.StringFlag{
			Name:    "model",
			Sources: cli.EnvVars("FACTAGENT_MODEL"),
			Usage:   "Model name override for the selected backend",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Sources: cli.EnvVars("FACTAGENT_LOG_LEVEL"),
			Usage:   "Log level (debug, info, warn, error)",
		},
		&cli.StringSliceFlag{
			Name:    "mcp-stdio",
			Sources: cli.EnvVars("FACTAGENT_MCP_STDIO"),
			Usage:   "Local MCP server command for the secretary, e.g. \"npx hackmd-mcp\" (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:    "mcp-sse",
			Sources: cli.EnvVars("FACTAGENT_MCP_SSE"),
			Usage:   "Remote MCP server URL for the secretary over HTTP SSE (repeatable)",
		},
	}
}
