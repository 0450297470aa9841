// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/iclaudius/claudius/internal/buildinfo"
	"github.com/iclaudius/claudius/internal/config"
	"github.com/iclaudius/claudius/internal/db"
	"github.com/iclaudius/claudius/internal/export"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// requireHistory returns the open history store or errHistoryDisabled.
func (a *app) requireHistory() (*db.Store, error) {
	store, err := a.history()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errHistoryDisabled
	}
	return store, nil
}

// newHistoryCmd shows and maintains the scan history database.
func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scans and their score trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			scans, err := store.RecentScans(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(scans) == 0 {
				fmt.Fprintln(out, i18n.T("cli.no_scans"))
				return nil
			}
			// Trend is oldest first over the same scans.
			trend, err := store.Trend(ctx, limit)
			if err != nil {
				return err
			}
			total, err := store.CountScans(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, i18n.T("cli.scans_shown", len(scans), total))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSCORE\tCHANGE\tGRADE\tCOVERAGE\tCONFLICTS\tISSUES")
			for i, s := range scans {
				delta := ""
				if j := len(trend) - 1 - i; j > 0 && j < len(trend) {
					delta = fmt.Sprintf("%+d", trend[j].Delta)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d%%\t%d\t%d\n",
					s.ScannedAt.Local().Format("2006-01-02 15:04"), s.Score, delta, s.Grade, s.Coverage, s.Conflicts, s.Issues)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of scans to show (0 for all)")

	var auditLimit int
	audit := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail of writes made through Claudius",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			entries, err := store.AuditEntries(cmd.Context(), auditLimit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, i18n.T("cli.no_audit"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tUSER\tACTION\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Username, e.Action, e.Details)
			}
			return w.Flush()
		},
	}
	audit.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Number of entries to show (0 for all)")

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete scans older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			n, err := store.Prune(cmd.Context(), a.clock.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.pruned", n, olderThan.String()))
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Age of the oldest scan to keep")

	maintain := &cobra.Command{
		Use:   "maintain",
		Short: "Run database maintenance (VACUUM, integrity check)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			if err := store.Maintenance(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.maintenance_done"))
			return nil
		},
	}

	cmd.AddCommand(audit, prune, maintain)
	return cmd
}

// newExportCmd writes the snapshot and report as one JSON document.
func newExportCmd(a *app) *cobra.Command {
	var compress bool
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the scan and analysis as JSON, optionally zstd-compressed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return export.Write(cmd.OutOrStdout(), v.Snapshot, v.Report, compress, a.clock.Now())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("could not create %s: %w", output, err)
			}
			if err := export.Write(f, v.Snapshot, v.Report, compress, a.clock.Now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.exported", output))
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "zstd", false, "Compress the output with zstd")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := json.MarshalIndent(export.Schema(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

// newDebugCmd dumps the effective configuration, layout, flags and
// environment.
func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Dump debug information about config, layout, env and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "--- CLAUDIUS DEBUG ---")
			fmt.Fprintf(out, "Version: %s\n", buildinfo.String(nil))
			if path, err := getConfigPathFromCli(cmd); err == nil && path != nil {
				fmt.Fprintf(out, "Config file: %s\n", *path)
			} else if p, err := config.GetConfigPath(false); err == nil {
				fmt.Fprintf(out, "User config path: %s\n", p)
			}

			cfg := a.cfg
			cfg.History.Dsn = db.RedactDSN(cfg.History.Type, cfg.History.Dsn)
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("could not marshal config: %w", err)
			}
			fmt.Fprintln(out, "-- effective config --")
			fmt.Fprint(out, string(b))

			fmt.Fprintln(out, "-- layout --")
			fmt.Fprintf(out, "home = %s\n", a.layout.Home)
			fmt.Fprintf(out, "config_dir = %s\n", a.layout.ConfigDir)
			fmt.Fprintf(out, "commands = %s\n", a.layout.CommandsDir())
			fmt.Fprintf(out, "skills = %s\n", a.layout.SkillsDir())
			fmt.Fprintf(out, "agents = %s\n", a.layout.AgentsDir())
			fmt.Fprintf(out, "plugins = %s\n", a.layout.PluginManifest())
			fmt.Fprintf(out, "changelog = %s\n", a.layout.ChangeLog())
			fmt.Fprintf(out, "project_roots = %s\n", strings.Join(a.layout.ProjectRoots, ", "))

			fmt.Fprintln(out, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				v := f.Value.String()
				if f.Name == "history-dsn" {
					v = db.RedactDSN(a.cfg.History.Type, v)
				}
				fmt.Fprintf(out, "%s = %s\n", f.Name, v)
			})

			fmt.Fprintln(out, "-- environment (CLAUDIUS_*) --")
			for _, e := range os.Environ() {
				if !strings.HasPrefix(e, "CLAUDIUS_") {
					continue
				}
				if k, v, _ := strings.Cut(e, "="); k == "CLAUDIUS_HISTORY_DSN" {
					e = k + "=" + db.RedactDSN(a.cfg.History.Type, v)
				}
				fmt.Fprintln(out, e)
			}
			fmt.Fprintln(out, "--- END DEBUG ---")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := buildinfo.Resolve(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}
