// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface of Claudius with cobra. It
// defines the root command, which opens the dashboard on a terminal, the
// subcommands and the shared service wiring.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/buildinfo"
	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/config"
	"github.com/iclaudius/claudius/internal/cron"
	"github.com/iclaudius/claudius/internal/db"
	"github.com/iclaudius/claudius/internal/editor"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/scanner"
	"github.com/iclaudius/claudius/internal/state"
	"github.com/iclaudius/claudius/internal/tui"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Seams replaced by tests.
var (
	newCronRunner = func() cron.Runner { return cron.ExecRunner{} }
	newProber     = func(binary string) scanner.Prober { return scanner.NewSystemProber(binary) }
	isTerminal    = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	runTUI        = tui.Run
	newClock      = clockwork.NewRealClock
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, i18n.T("error.prefix", err))
		stop()
		os.Exit(1)
	}
}

// app holds the services shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	cfg     config.Config
	layout  layout.Layout
	clock   clockwork.Clock
	crontab *cron.Crontab
	changes *changelog.Log

	editor *editor.Editor
	dash   *state.Dashboard

	// The history database is opened on first use.
	store       *db.Store
	storeErr    error
	storeOpened bool
}

// setup loads the configuration and builds the services.
func (a *app) setup(cmd *cobra.Command) error {
	path, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}
	a.cfg, err = config.LoadConfig[config.Config](cmd, config.Defaults(), path)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if a.cfg.Language == "" {
		a.cfg.Language = "en"
	}

	logging.SetDebug(a.cfg.Verbose)
	db.SetDebug(a.cfg.Verbose)
	i18n.Init(a.cfg.Language)

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}
	a.layout = layout.New(home, a.cfg.ClaudeDir, a.cfg.ProjectRoots, a.cfg.MaxDepth)
	a.clock = newClock()

	a.crontab = cron.New(a.cfg.Cron.Binary, a.cfg.AssistantBinary)
	a.crontab.Runner = newCronRunner()
	a.changes = changelog.New(a.layout.ChangeLog(), a.clock)
	a.editor = editor.New(a.layout, a.changes, nil)

	sc := scanner.New(a.layout, scanner.Options{
		Tokens: scanner.NewTokenCounter(a.cfg.ExactTokens),
		Prober: newProber(a.cfg.AssistantBinary),
		Cron:   a.crontab,
		Clock:  a.clock,
	})
	a.dash = state.New(sc, analyzer.Options{TokenBudget: a.cfg.TokenBudget, Home: a.layout.Home}, nil, a.clock)

	logging.Debugf("config dir %s, %d project roots", a.layout.ConfigDir, len(a.layout.ProjectRoots))
	return nil
}

// history opens the history database once. It returns nil without an error
// when history is disabled.
func (a *app) history() (*db.Store, error) {
	if a.storeOpened {
		return a.store, a.storeErr
	}
	a.storeOpened = true
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	a.store, a.storeErr = db.Open(a.cfg.History.Type, a.cfg.History.Dsn, a.clock)
	if a.storeErr != nil {
		a.storeErr = fmt.Errorf("open history: %w", a.storeErr)
	}
	return a.store, a.storeErr
}

// attachHistory connects the history database to the dashboard and the
// editor. A database that fails to open is logged and skipped.
func (a *app) attachHistory() {
	store, err := a.history()
	if err != nil {
		logging.Warnf("%v", err)
		return
	}
	if store == nil {
		return
	}
	a.dash.SetHistory(store)
	a.editor.SetAuditor(store)
}

// refresh scans once and returns the result.
func (a *app) refresh(ctx context.Context) (state.View, error) {
	a.attachHistory()
	if err := a.dash.Refresh(ctx); err != nil {
		return state.View{}, err
	}
	return a.dash.Current(), nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Warnf("close history: %v", err)
		}
		a.store = nil
	}
}

// launch runs the terminal UI. Log output moves to a file so it does not
// tear the screen.
func (a *app) launch(ctx context.Context) error {
	if closer, err := logging.ToFile(filepath.Join(a.layout.ConfigDir, "claudius.log")); err == nil {
		defer func() { _ = closer.Close() }()
	} else {
		logging.Warnf("could not open log file: %v", err)
	}
	a.attachHistory()

	d := &tui.Deps{
		Dashboard: a.dash,
		Editor:    a.editor,
		Cron:      a.crontab,
		Config:    &a.cfg,
		SaveConfig: func(c *config.Config) error {
			return config.WriteConfigFile(c, false)
		},
	}
	if a.cfg.Watch {
		d.Watch = a.dash.WatchDirs(a.layout)
	}
	return runTUI(ctx, d)
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	// Make sure the user-provided file exists to avoid unwanted behavior.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// NewRootCmd creates and configures a new root cobra command. Every call
// returns a fresh tree, which keeps tests isolated.
func NewRootCmd() *cobra.Command {
	a := &app{}
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "claudius",
		Short: "Claudius shows and edits your AI assistant configuration.",
		Long: `Claudius scans the assistant's configuration tree: instruction files,
commands, skills, agents, plugins, settings, MCP servers and scheduled jobs.
It reports conflicts, safety risks and coverage, and edits the files for you.

Running without a subcommand opens the dashboard on a terminal and prints a
summary otherwise.`,
		Version:       buildinfo.String(nil),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return a.printSummary(cmd.Context(), cmd.OutOrStdout())
			}
			return a.launch(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.String("lang", defaults["language"].(string), `Language ("en", "de")`)
	pf.String("claude-dir", "", "Assistant config directory (default ~/.claude)")
	pf.StringSlice("project-root", nil, "Directory searched for projects (repeatable)")
	pf.Int("max-depth", defaults["max_depth"].(int), "How deep to search project roots")
	pf.String("assistant-binary", defaults["assistant_binary"].(string), "Name or path of the assistant binary")
	pf.Int("token-budget", defaults["token_budget"].(int), "Token budget per instruction file")
	pf.Bool("exact-tokens", false, "Count tokens with a real tokenizer instead of estimating")
	pf.String("crontab", defaults["cron.binary"].(string), "crontab binary")
	pf.Bool("history", defaults["history.enabled"].(bool), "Record scans in the history database")
	pf.String("history-type", defaults["history.type"].(string), `History database type ("sqlite", "postgres", "mysql")`)
	pf.String("history-dsn", defaults["history.dsn"].(string), "History database connection string (DSN)")
	cmd.Flags().Bool("watch", false, "Refresh the dashboard when files change")

	cmd.AddCommand(
		newScanCmd(a),
		newAnalyzeCmd(a),
		newCronCmd(a),
		newNewCmd(a),
		newChangelogCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newSchemaCmd(),
		newDebugCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// errHistoryDisabled is returned by history subcommands when no database is
// configured.
var errHistoryDisabled = errors.New("history is disabled")
