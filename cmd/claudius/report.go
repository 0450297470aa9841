// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/spf13/cobra"
)

// Sections accepted by `analyze --section`.
const (
	sectionConflicts = "conflicts"
	sectionDeps      = "deps"
	sectionSafety    = "safety"
	sectionHealth    = "health"
	sectionCoverage  = "coverage"
)

var analyzeSections = []string{sectionConflicts, sectionDeps, sectionSafety, sectionHealth, sectionCoverage}

// printSummary writes the dashboard as plain text.
func (a *app) printSummary(ctx context.Context, out io.Writer) error {
	v, err := a.refresh(ctx)
	if err != nil {
		return err
	}
	snap, r := v.Snapshot, v.Report

	fmt.Fprintf(out, "%s - %s\n\n", i18n.T("dashboard.title"), i18n.T("dashboard.subtitle"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	version := snap.AssistantVersion
	if version == "" {
		version = i18n.T("dashboard.not_installed")
	}
	fmt.Fprintf(w, "%s\t%s\n", i18n.T("dashboard.version"), version)
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.sessions"), snap.RunningSessions)
	fmt.Fprintf(w, "%s\t%s\n", i18n.T("dashboard.config_dir"), snap.ConfigDir)
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.instructions"), r.Summary.Instructions)
	fmt.Fprintf(w, "%s\t%s\n", i18n.T("dashboard.commands"),
		i18n.T("dashboard.commands_value", r.Summary.Commands, r.Summary.Skills, r.Summary.Agents))
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.plugins"), r.Summary.Plugins)
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.settings"), r.Summary.Settings)
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.mcp_servers"), r.Summary.MCPServers)
	fmt.Fprintf(w, "%s\t%s\n", i18n.T("dashboard.cron_jobs"),
		i18n.T("dashboard.cron_value", r.Summary.CronJobs, len(snap.AssistantCronJobs())))
	fmt.Fprintf(w, "%s\t%d/100 (%s)\n", i18n.T("dashboard.safety"), r.Safety.Score, r.Safety.Grade)
	fmt.Fprintf(w, "%s\t%d%%\n", i18n.T("dashboard.coverage"), r.Coverage.Percent)
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.conflicts"), len(r.Conflicts))
	fmt.Fprintf(w, "%s\t%d\n", i18n.T("dashboard.issues"), r.Summary.Issues)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n", i18n.T("dashboard.top_findings"))
	top := r.TopFindings(5)
	if len(top) == 0 {
		fmt.Fprintf(out, "  %s\n", i18n.T("dashboard.no_findings"))
	}
	for _, f := range top {
		fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)
	}

	fmt.Fprintf(out, "\n%s\n", i18n.T("dashboard.recent_changes"))
	recent := changelog.Recent(snap.Changes, 5)
	if len(recent) == 0 {
		fmt.Fprintf(out, "  %s\n", i18n.T("dashboard.no_changes"))
	}
	for _, e := range recent {
		fmt.Fprintf(out, "  %s  %s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.Summary)
	}
	return nil
}

func newScanCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the configuration tree and list what was found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				b, err := json.MarshalIndent(v.Snapshot, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}
			return writeInventory(out, v.Snapshot)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

// writeInventory lists every scanned item grouped by category.
func writeInventory(out io.Writer, snap *model.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	heading := func(key string, n int) {
		fmt.Fprintf(w, "\n%s (%d)\n", i18n.T(key), n)
	}

	heading("menu.instructions", len(snap.Instructions))
	for _, f := range snap.Instructions {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\n", f.Scope, f.Path, f.Lines, f.Tokens)
	}
	heading("menu.commands", len(snap.Commands))
	for _, c := range snap.Commands {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", c.Kind, c.Invocation(), c.Scope, c.Description)
	}
	heading("menu.plugins", len(snap.Plugins))
	for _, p := range snap.Plugins {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", p.ID(), p.Version, yesNo(p.Enabled))
	}
	settings := snap.ExistingSettings()
	heading("menu.settings", len(settings))
	for _, s := range settings {
		fmt.Fprintf(w, "  %s\t%s\t%d/%d\n", s.Scope, s.Path, len(s.Allow), len(s.Deny))
	}
	heading("menu.mcp", len(snap.MCPServers))
	for _, m := range snap.MCPServers {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", m.Name, m.Type, m.Source)
	}
	heading("menu.cron", len(snap.CronJobs))
	for _, j := range snap.CronJobs {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", j.Index, j.Schedule, yesNo(j.Enabled), j.Command)
	}
	if len(snap.Issues) > 0 {
		fmt.Fprintf(w, "\n%s %d\n", i18n.T("dashboard.issues"), len(snap.Issues))
		for _, is := range snap.Issues {
			fmt.Fprintf(w, "  %s\t%s\n", is.Path, is.Message)
		}
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return i18n.T("yes")
	}
	return i18n.T("no")
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report conflicts, broken references, safety, health and coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sections := analyzeSections
			if section != "" {
				if !contains(analyzeSections, section) {
					return fmt.Errorf("%s", i18n.T("cli.unknown_section", section, strings.Join(analyzeSections, ", ")))
				}
				sections = []string{section}
			}
			v, err := a.refresh(cmd.Context())
			if err != nil {
				return err
			}
			return writeAnalysis(cmd.OutOrStdout(), v.Report, sections)
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "Only print one section: "+strings.Join(analyzeSections, ", "))
	return cmd
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// writeAnalysis prints the requested report sections in order.
func writeAnalysis(out io.Writer, r *analyzer.Report, sections []string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		switch s {
		case sectionConflicts:
			fmt.Fprintf(w, "%s %d\n", i18n.T("dashboard.conflicts"), len(r.Conflicts))
			for _, c := range r.Conflicts {
				fmt.Fprintf(w, "  %s\t%s\n", c.Kind, c.Message)
				for _, src := range c.Sources {
					fmt.Fprintf(w, "  \t  %s\n", src)
				}
			}
		case sectionDeps:
			broken := r.Graph.Broken()
			fmt.Fprintf(w, "%s\n", i18n.T("cli.dependencies", len(r.Graph.Nodes), len(r.Graph.Edges)))
			for _, e := range broken {
				fmt.Fprintf(w, "  %s\n", i18n.T("analysis.broken", e.From, e.To))
			}
			for _, c := range r.Graph.Cycles {
				if len(c) == 0 {
					continue
				}
				cycle := append(append([]string{}, c...), c[0])
				fmt.Fprintf(w, "  %s\n", i18n.T("cli.cycle", strings.Join(cycle, " -> ")))
			}
			if len(broken) == 0 && len(r.Graph.Cycles) == 0 {
				fmt.Fprintf(w, "  %s\n", i18n.T("dashboard.no_findings"))
			}
		case sectionSafety:
			fmt.Fprintf(w, "%s %d/100 (%s)\n", i18n.T("dashboard.safety"), r.Safety.Score, r.Safety.Grade)
			for _, f := range r.Safety.Findings {
				fmt.Fprintf(w, "  -%d\t%s\t%s\n", f.Deduction, f.Rule, f.Message)
			}
		case sectionHealth:
			fmt.Fprintf(w, "%s %d\n", i18n.T("dashboard.health"), len(r.Health))
			for _, f := range r.Health {
				fmt.Fprintf(w, "  [%s]\t%s\t%s\n", f.Severity, f.Message, f.Path)
			}
		case sectionCoverage:
			fmt.Fprintf(w, "%s %d%%\n", i18n.T("dashboard.coverage"), r.Coverage.Percent)
			for _, it := range r.Coverage.Items {
				fmt.Fprintf(w, "  %s\t%d\t%s\n", it.Category, it.Count, yesNo(it.Configured))
			}
		}
	}
	return w.Flush()
}
