package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pstuifzand/outline-diff/internal/config"
	"github.com/pstuifzand/outline-diff/internal/log"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the outline-diff command tree. Command output goes to
// stdout, logging to stderr unless --log-file is given.
func newApp(stdout, stderr io.Writer) *cli.Command {
	var logFile *os.File

	return &cli.Command{
		Name:  "outline-diff",
		Usage: "show how an outline changed between two versions",
		Description: `Top-level outline items are compared as sections and their descendants
as items. Changes are reported as insertions, deletions, updates and moves.

Examples:
  # Compare two outline files
  outline-diff diff old.json new.json

  # Browse the changes in a terminal viewer
  outline-diff view old.json new.json

  # Store a backup of a file, then show changes across its backups
  outline-diff snapshot notes.json
  outline-diff history notes.json`,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "read configuration from `FILE` instead of ~/.config/outline-diff/config.toml",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "append log output to `FILE`",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			path := cmd.String("log-file")
			if path == "" {
				log.Init(stderr)
				return ctx, nil
			}
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return ctx, fmt.Errorf("failed to open log file: %w", err)
			}
			logFile = f
			log.Init(f)
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			diffCommand(),
			historyCommand(),
			viewCommand(),
			snapshotCommand(),
			configCommand(),
		},
	}
}

// loadConfig reads the configuration named by --config, or the default one,
// and applies the flags of cmd as session overrides
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("threshold") {
		cfg.Set(config.KeyMoveThreshold, fmt.Sprint(cmd.Int("threshold")))
	}
	if cmd.IsSet("conflict") {
		cfg.Set(config.KeyConflictPolicy, cmd.String("conflict"))
	}
	if cmd.IsSet("verbose") {
		cfg.Set(config.KeyVerbose, fmt.Sprint(cmd.Bool("verbose")))
	}
	if cmd.IsSet("summary") {
		cfg.Set(config.KeySummary, fmt.Sprint(cmd.Bool("summary")))
	}
	if cmd.IsSet("time-format") {
		cfg.Set(config.KeyTimeFormat, cmd.String("time-format"))
	}
	return cfg, nil
}
