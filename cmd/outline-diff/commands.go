package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	"github.com/urfave/cli/v3"

	"github.com/pstuifzand/outline-diff/internal/config"
	"github.com/pstuifzand/outline-diff/internal/diff"
	"github.com/pstuifzand/outline-diff/internal/log"
	"github.com/pstuifzand/outline-diff/internal/model"
	"github.com/pstuifzand/outline-diff/internal/storage"
	"github.com/pstuifzand/outline-diff/internal/textoutline"
	"github.com/pstuifzand/outline-diff/internal/theme"
	"github.com/pstuifzand/outline-diff/internal/ui"
)

// newScreen opens the terminal for the view command
var newScreen = ui.NewScreen

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "threshold",
			Usage: "maximum number of moves per level before reporting a full reload (negative: unlimited)",
		},
		&cli.StringFlag{
			Name:  "conflict",
			Usage: "conflict policy: none, row-delete-in-moved-section or any-row-change-in-moved-section",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "show field-level details of updated items",
		},
		&cli.BoolFlag{
			Name:    "summary",
			Aliases: []string{"s"},
			Usage:   "only show the number of changes",
		},
		&cli.StringFlag{
			Name:  "match",
			Usage: "only show sections whose title fuzzy-matches `TEXT`",
		},
		&cli.StringFlag{
			Name:  "time-format",
			Usage: "strftime `LAYOUT` for timestamps",
		},
	}
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "compare two outline files",
		ArgsUsage: "<old> <new>",
		Description: `Files ending in .md are read as markdown, files ending in .txt as
indented text and everything else as JSON outlines.`,
		Flags: append(append(engineFlags(), outputFlags()...),
			&cli.BoolFlag{
				Name:  "color",
				Usage: "color the output with the configured theme",
			},
		),
		Action: diffAction,
	}
}

func diffAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return fmt.Errorf("diff needs two files, got %d", cmd.NArg())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	oldPath, newPath := cmd.Args().Get(0), cmd.Args().Get(1)
	lines, err := compareFiles(cfg, cmd, oldPath, newPath)
	if err != nil {
		return err
	}

	var colors *theme.Colors
	if cmd.Bool("color") {
		colors = &loadTheme(cfg).Colors
	}

	fmt.Fprintf(cmd.Root().Writer, "=== Outline Diff: %s → %s ===\n\n", oldPath, newPath)
	printLines(cmd.Root().Writer, lines, colors)
	return nil
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "browse the changes between two outline files in the terminal",
		ArgsUsage: "<old> <new>",
		Flags:     append(engineFlags(), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("view needs two files, got %d", cmd.NArg())
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			oldPath, newPath := cmd.Args().Get(0), cmd.Args().Get(1)
			lines, err := compareFiles(cfg, cmd, oldPath, newPath)
			if err != nil {
				return err
			}

			screen, err := newScreen(loadTheme(cfg))
			if err != nil {
				return err
			}
			defer screen.Close()

			view := ui.NewDiffViewWidget()
			view.Show(lines, oldPath, newPath)
			return ui.Run(screen, view)
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "show the changes between consecutive backups of a file",
		ArgsUsage: "<file>",
		Flags: append(append(engineFlags(), outputFlags()...),
			&cli.StringFlag{
				Name:  "backup-dir",
				Usage: "read backups from `DIR` instead of ~/.local/share/outline-diff/backups",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "only compare the `N` most recent backups (0: all)",
			},
		),
		Action: historyAction,
	}
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("history needs one file, got %d", cmd.NArg())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	filePath := cmd.Args().First()
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}

	bm, err := storage.NewBackupManager(cmd.String("backup-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize backup manager: %w", err)
	}

	var backups []storage.BackupMetadata
	if n := cmd.Int("limit"); n > 0 {
		backups, err = bm.LatestBackups(absPath, max(n, 2))
	} else {
		backups, err = bm.FindBackupsForFile(absPath)
		if err == nil && len(backups) < 2 {
			err = fmt.Errorf("%s has %d backups, need 2: %w", absPath, len(backups), storage.ErrNoBackups)
		}
	}
	if errors.Is(err, storage.ErrNoBackups) {
		return fmt.Errorf("%w\nbackups are stored in %s, create one with: outline-diff snapshot %s", err, bm.Dir(), filePath)
	}
	if err != nil {
		return err
	}
	log.Debugf("history of %s: %d backups in %s", absPath, len(backups), bm.Dir())

	w := cmd.Root().Writer
	timeFormat := cfg.TimeFormat()
	fmt.Fprintf(w, "=== Backup History for: %s ===\n", filePath)
	fmt.Fprintf(w, "Found %d backups\n\n", len(backups))

	format := formatOptions(cfg, cmd)
	for i := 0; i < len(backups)-1; i++ {
		older, newer := backups[i], backups[i+1]
		oldOutline, err := older.Load()
		if err != nil {
			log.WithError(err).Warnf("skipping backup %s", older.FilePath)
			continue
		}
		newOutline, err := newer.Load()
		if err != nil {
			log.WithError(err).Warnf("skipping backup %s", newer.FilePath)
			continue
		}

		fmt.Fprintf(w, "--- %s (backup %d, %s)\n", strftime.Format(timeFormat, older.Timestamp), i+1, humanize.Time(older.Timestamp))
		fmt.Fprintf(w, "+++ %s (backup %d, %s)\n\n", strftime.Format(timeFormat, newer.Timestamp), i+2, humanize.Time(newer.Timestamp))

		r := diff.ComputeDiff(oldOutline, newOutline, opts)
		printLines(w, diff.BuildDiffLines(r, format), nil)
		fmt.Fprintln(w)
	}
	return nil
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     "store a backup of a file for the history command",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backup-dir",
				Usage: "write the backup to `DIR` instead of ~/.local/share/outline-diff/backups",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("snapshot needs one file, got %d", cmd.NArg())
			}
			filePath := cmd.Args().First()
			bm, err := storage.NewBackupManager(cmd.String("backup-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize backup manager: %w", err)
			}
			if bm.Contains(filePath) {
				return fmt.Errorf("%s is a backup itself", filePath)
			}

			outline, err := loadOutline(filePath)
			if err != nil {
				return err
			}
			path, err := bm.CreateBackup(outline, filePath, storage.NewSessionID())
			if err != nil {
				return err
			}
			log.Infof("backup of %s written to %s", filePath, path)

			fmt.Fprintf(cmd.Root().Writer, "Backup written to %s (%s items)\n", path, humanize.Comma(int64(len(outline.GetAllItems()))))
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "show or create the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the effective settings",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					opts, err := cfg.EngineOptions()
					if err != nil {
						return err
					}

					w := cmd.Root().Writer
					fmt.Fprintf(w, "theme = %s\n", cfg.Theme)
					fmt.Fprintf(w, "%s = %d\n", config.KeyMoveThreshold, opts.MoveThreshold)
					fmt.Fprintf(w, "%s = %s\n", config.KeyConflictPolicy, opts.Conflict)
					fmt.Fprintf(w, "%s = %t\n", config.KeyVerbose, cfg.Verbose())
					fmt.Fprintf(w, "%s = %t\n", config.KeySummary, cfg.Summary())
					fmt.Fprintf(w, "%s = %s\n", config.KeyTimeFormat, cfg.TimeFormat())

					settings := cfg.GetAll()
					keys := slices.Sorted(maps.Keys(settings))
					for _, k := range keys {
						fmt.Fprintf(w, "settings.%s = %s\n", k, settings[k])
					}
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "write a configuration file with the default settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing file",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.String("config")
					if path == "" {
						var err error
						if path, err = config.Path(); err != nil {
							return err
						}
					}
					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						return fmt.Errorf("%s already exists, use --force to overwrite it", path)
					}

					if err := config.Default().SaveTo(path); err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "Configuration written to %s\n", path)
					return nil
				},
			},
		},
	}
}

// compareFiles loads both outlines and renders their difference
func compareFiles(cfg *config.Config, cmd *cli.Command, oldPath, newPath string) ([]diff.DiffLine, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	oldOutline, err := loadOutline(oldPath)
	if err != nil {
		return nil, err
	}
	newOutline, err := loadOutline(newPath)
	if err != nil {
		return nil, err
	}

	r := diff.ComputeDiff(oldOutline, newOutline, opts)
	return diff.BuildDiffLines(r, formatOptions(cfg, cmd)), nil
}

func formatOptions(cfg *config.Config, cmd *cli.Command) diff.FormatOptions {
	return diff.FormatOptions{
		Verbose:    cfg.Verbose(),
		Summary:    cfg.Summary(),
		Match:      cmd.String("match"),
		TimeFormat: cfg.TimeFormat(),
	}
}

// loadOutline reads a JSON outline, or a markdown or indented text file
// judged by its extension
func loadOutline(path string) (*model.Outline, error) {
	store := storage.NewJSONStore(path)
	if !store.FileExists() {
		return nil, fmt.Errorf("%s: file not found", path)
	}

	var (
		outline *model.Outline
		err     error
	)
	if format := textoutline.DetectFormat(path); format != textoutline.FormatJSON {
		outline, err = textoutline.LoadFile(path, format)
	} else {
		outline, err = store.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return outline, nil
}

// loadTheme returns the configured theme with the [colors] overrides
// applied. An unknown theme falls back to Tokyo Night.
func loadTheme(cfg *config.Config) *theme.Theme {
	t, err := theme.LoadTheme(cfg.Theme)
	if err != nil {
		log.WithError(err).Warnf("falling back to the tokyo-night theme")
		t = theme.TokyoNight()
	}
	if rejected := t.Override(cfg.Colors); len(rejected) > 0 {
		log.Warnf("ignoring invalid colors: %s", strings.Join(rejected, ", "))
	}
	return t
}

// printLines writes lines as plain text, or colored with ANSI escapes when
// colors is set
func printLines(w io.Writer, lines []diff.DiffLine, colors *theme.Colors) {
	for _, line := range lines {
		text := line.String()
		if colors != nil && text != "" {
			fg, bold := ui.LineColor(*colors, line.Type)
			if esc := theme.ANSI(fg); esc != "" {
				if bold {
					esc = "\x1b[1m" + esc
				}
				text = esc + text + theme.ANSIReset
			}
		}
		fmt.Fprintln(w, text)
	}
}
