// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/cron"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/state"
)

// section identifies one list view.
type section int

const (
	sectionInstructions section = iota
	sectionCommands
	sectionPlugins
	sectionSettings
	sectionMCP
	sectionCron
	sectionAnalysis
	sectionChangelog
)

// sections lists the list views in menu order.
var sections = []section{
	sectionInstructions,
	sectionCommands,
	sectionPlugins,
	sectionSettings,
	sectionMCP,
	sectionCron,
	sectionAnalysis,
	sectionChangelog,
}

func (s section) title() string {
	switch s {
	case sectionInstructions:
		return i18n.T("menu.instructions")
	case sectionCommands:
		return i18n.T("menu.commands")
	case sectionPlugins:
		return i18n.T("menu.plugins")
	case sectionSettings:
		return i18n.T("menu.settings")
	case sectionMCP:
		return i18n.T("menu.mcp")
	case sectionCron:
		return i18n.T("menu.cron")
	case sectionAnalysis:
		return i18n.T("menu.analysis")
	case sectionChangelog:
		return i18n.T("menu.changelog")
	}
	return ""
}

// listRow is one table row plus what the detail pane and the actions need.
type listRow struct {
	cells   []string
	detail  []string
	path    string
	job     *model.CronJob
	dimmed  bool
	warning bool
}

type column struct {
	title string
	width int
}

// sectionColumns returns the table columns of s.
func sectionColumns(s section) []column {
	switch s {
	case sectionInstructions:
		return []column{{i18n.T("col.name"), 28}, {i18n.T("col.scope"), 14}, {i18n.T("col.lines"), 7}, {i18n.T("col.tokens"), 8}}
	case sectionCommands:
		return []column{{i18n.T("col.invocation"), 28}, {i18n.T("col.kind"), 8}, {i18n.T("col.scope"), 10}, {i18n.T("col.description"), 40}}
	case sectionPlugins:
		return []column{{i18n.T("col.name"), 28}, {i18n.T("col.version"), 10}, {i18n.T("col.enabled"), 8}, {i18n.T("col.marketplace"), 20}}
	case sectionSettings:
		return []column{{i18n.T("col.scope"), 14}, {i18n.T("col.allow"), 6}, {i18n.T("col.deny"), 6}, {i18n.T("col.hooks"), 6}, {i18n.T("col.path"), 40}}
	case sectionMCP:
		return []column{{i18n.T("col.name"), 20}, {i18n.T("col.type"), 8}, {i18n.T("col.source"), 24}, {i18n.T("col.target"), 30}}
	case sectionCron:
		return []column{{i18n.T("col.schedule"), 16}, {i18n.T("col.when"), 24}, {i18n.T("col.enabled"), 8}, {i18n.T("col.command"), 40}}
	case sectionAnalysis:
		return []column{{i18n.T("col.kind"), 12}, {i18n.T("col.subject"), 28}, {i18n.T("col.message"), 50}}
	case sectionChangelog:
		return []column{{i18n.T("col.time"), 16}, {i18n.T("col.actor"), 10}, {i18n.T("col.action"), 18}, {i18n.T("col.summary"), 40}}
	}
	return nil
}

func tableColumns(cols []column) []table.Column {
	out := make([]table.Column, len(cols))
	for i, c := range cols {
		out[i] = table.Column{Title: c.title, Width: c.width}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return i18n.T("yes")
	}
	return i18n.T("no")
}

// sectionRows builds the rows of s from the current dashboard view.
func sectionRows(s section, v state.View) []listRow {
	snap, report := v.Snapshot, v.Report
	if snap == nil {
		return nil
	}
	switch s {
	case sectionInstructions:
		return instructionRows(snap)
	case sectionCommands:
		return commandRows(snap)
	case sectionPlugins:
		return pluginRows(snap)
	case sectionSettings:
		return settingsRows(snap)
	case sectionMCP:
		return mcpRows(snap)
	case sectionCron:
		return cronRows(snap)
	case sectionAnalysis:
		return analysisRows(report)
	case sectionChangelog:
		return changeRows(snap)
	}
	return nil
}

func instructionRows(snap *model.Snapshot) []listRow {
	rows := make([]listRow, 0, len(snap.Instructions))
	for _, f := range snap.Instructions {
		detail := []string{
			i18n.T("detail.path", f.Path),
			i18n.T("detail.modified", f.ModTime.Format("2006-01-02 15:04")),
			i18n.T("detail.size", f.Size, f.Lines, f.Tokens),
		}
		if f.Project != "" {
			detail = append(detail, i18n.T("detail.project", f.Project))
		}
		if len(f.Imports) > 0 {
			detail = append(detail, "", i18n.T("detail.imports"))
			for _, imp := range f.Imports {
				detail = append(detail, "  @"+imp)
			}
		}
		if preview := preview(f.Content, 8); preview != "" {
			detail = append(detail, "", preview)
		}
		rows = append(rows, listRow{
			cells:  []string{f.Name(), string(f.Scope), fmt.Sprint(f.Lines), fmt.Sprint(f.Tokens)},
			detail: detail,
			path:   f.Path,
		})
	}
	return rows
}

func commandRows(snap *model.Snapshot) []listRow {
	rows := make([]listRow, 0, len(snap.Commands))
	for _, c := range snap.Commands {
		detail := []string{i18n.T("detail.path", c.Path)}
		if c.Description != "" {
			detail = append(detail, "", c.Description)
		}
		if len(c.AllowedTools) > 0 {
			detail = append(detail, "", i18n.T("detail.tools", strings.Join(c.AllowedTools, ", ")))
		}
		if c.Model != "" {
			detail = append(detail, i18n.T("detail.model", c.Model))
		}
		if c.ArgumentHint != "" {
			detail = append(detail, i18n.T("detail.argument_hint", c.ArgumentHint))
		}
		if preview := preview(c.Body, 8); preview != "" {
			detail = append(detail, "", preview)
		}
		rows = append(rows, listRow{
			cells:   []string{c.Invocation(), string(c.Kind), string(c.Scope), c.Description},
			detail:  detail,
			path:    c.Path,
			warning: c.Description == "",
		})
	}
	return rows
}

func pluginRows(snap *model.Snapshot) []listRow {
	rows := make([]listRow, 0, len(snap.Plugins))
	for _, p := range snap.Plugins {
		detail := []string{i18n.T("detail.id", p.ID())}
		if p.InstallPath != "" {
			detail = append(detail, i18n.T("detail.path", p.InstallPath))
		}
		if !p.InstalledAt.IsZero() {
			detail = append(detail, i18n.T("detail.installed", p.InstalledAt.Format("2006-01-02")))
		}
		if !p.LastUpdated.IsZero() {
			detail = append(detail, i18n.T("detail.updated", p.LastUpdated.Format("2006-01-02")))
		}
		if p.GitCommit != "" {
			detail = append(detail, i18n.T("detail.commit", truncate(p.GitCommit, 12)))
		}
		rows = append(rows, listRow{
			cells:  []string{p.Name, p.Version, yesNo(p.Enabled), p.Marketplace},
			detail: detail,
			path:   p.InstallPath,
			dimmed: !p.Enabled,
		})
	}
	return rows
}

func settingsRows(snap *model.Snapshot) []listRow {
	var rows []listRow
	for _, st := range snap.ExistingSettings() {
		detail := []string{i18n.T("detail.path", st.Path)}
		if st.PermissionMode != "" {
			detail = append(detail, i18n.T("detail.permission_mode", st.PermissionMode))
		}
		if st.Model != "" {
			detail = append(detail, i18n.T("detail.model", st.Model))
		}
		detail = appendList(detail, i18n.T("detail.allow"), st.Allow)
		detail = appendList(detail, i18n.T("detail.deny"), st.Deny)
		detail = appendList(detail, i18n.T("detail.ask"), st.Ask)
		if len(st.Hooks) > 0 {
			detail = append(detail, "", i18n.T("detail.hooks"))
			for _, h := range st.Hooks {
				line := "  " + h.Event
				if h.Matcher != "" {
					line += " [" + h.Matcher + "]"
				}
				detail = append(detail, line+": "+h.Command)
			}
		}
		if len(st.Env) > 0 {
			keys := make([]string, 0, len(st.Env))
			for k := range st.Env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			detail = appendList(detail, i18n.T("detail.env"), keys)
		}
		if keys := st.Keys(); len(keys) > 0 {
			detail = append(detail, "", i18n.T("detail.keys", strings.Join(keys, ", ")))
		}
		rows = append(rows, listRow{
			cells:  []string{string(st.Scope), fmt.Sprint(len(st.Allow)), fmt.Sprint(len(st.Deny)), fmt.Sprint(len(st.Hooks)), st.Path},
			detail: detail,
			path:   st.Path,
		})
	}
	return rows
}

func mcpRows(snap *model.Snapshot) []listRow {
	rows := make([]listRow, 0, len(snap.MCPServers))
	for _, srv := range snap.MCPServers {
		target := srv.URL
		if target == "" {
			target = strings.TrimSpace(srv.Command + " " + strings.Join(srv.Args, " "))
		}
		detail := []string{i18n.T("detail.source", srv.Source), i18n.T("detail.target", target)}
		if len(srv.Env) > 0 {
			keys := make([]string, 0, len(srv.Env))
			for k := range srv.Env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			detail = appendList(detail, i18n.T("detail.env"), keys)
		}
		rows = append(rows, listRow{
			cells:  []string{srv.Name, srv.Type, srv.Source, target},
			detail: detail,
			path:   srv.Source,
		})
	}
	return rows
}

func cronRows(snap *model.Snapshot) []listRow {
	rows := make([]listRow, 0, len(snap.CronJobs))
	for i := range snap.CronJobs {
		j := snap.CronJobs[i]
		detail := []string{i18n.T("detail.line", j.Line)}
		if j.Comment != "" {
			detail = append(detail, i18n.T("detail.comment", j.Comment))
		}
		if j.Assistant {
			detail = append(detail, "", specialStyle.Render(i18n.T("detail.runs_assistant")))
		}
		rows = append(rows, listRow{
			cells:  []string{j.Schedule, cron.Describe(j.Schedule), yesNo(j.Enabled), j.Command},
			detail: detail,
			path:   j.Command,
			job:    &j,
			dimmed: !j.Enabled,
		})
	}
	return rows
}

func analysisRows(r *analyzer.Report) []listRow {
	if r == nil {
		return nil
	}
	var rows []listRow
	for _, c := range r.Conflicts {
		detail := []string{c.Message, "", i18n.T("detail.sources")}
		for _, src := range c.Sources {
			detail = append(detail, "  "+src)
		}
		rows = append(rows, listRow{
			cells:   []string{string(c.Kind), c.Subject, c.Message},
			detail:  detail,
			path:    firstOf(c.Sources),
			warning: true,
		})
	}
	for _, e := range r.Graph.Broken() {
		msg := i18n.T("analysis.broken", e.From, e.To)
		rows = append(rows, listRow{
			cells:   []string{i18n.T("analysis.kind_dependency"), e.To, msg},
			detail:  []string{msg},
			warning: true,
		})
	}
	for _, cycle := range r.Graph.Cycles {
		loop := append(append([]string{}, cycle...), firstOf(cycle))
		msg := strings.Join(loop, " → ")
		rows = append(rows, listRow{
			cells:  []string{i18n.T("analysis.kind_cycle"), firstOf(cycle), msg},
			detail: []string{msg},
		})
	}
	for _, f := range r.Safety.Findings {
		rows = append(rows, listRow{
			cells:   []string{i18n.T("analysis.kind_safety"), f.Rule, f.Message},
			detail:  []string{f.Message, "", i18n.T("detail.deduction", f.Deduction), i18n.T("detail.path", f.Path)},
			path:    f.Path,
			warning: f.Deduction >= 15,
		})
	}
	for _, f := range r.Health {
		rows = append(rows, listRow{
			cells:   []string{string(f.Severity), f.Rule, f.Message},
			detail:  []string{f.Message, "", i18n.T("detail.path", f.Path)},
			path:    f.Path,
			warning: f.Severity == analyzer.SeverityError,
			dimmed:  f.Severity == analyzer.SeverityInfo,
		})
	}
	return rows
}

func changeRows(snap *model.Snapshot) []listRow {
	entries := changelog.Recent(snap.Changes, 0)
	rows := make([]listRow, 0, len(entries))
	for _, e := range entries {
		detail := []string{i18n.T("detail.id", e.ID), e.Summary}
		if e.Target != "" {
			detail = append(detail, i18n.T("detail.target", e.Target))
		}
		if e.Details != "" {
			detail = append(detail, "", e.Details)
		}
		rows = append(rows, listRow{
			cells:  []string{e.Timestamp.Local().Format("2006-01-02 15:04"), e.Actor, e.Action, e.Summary},
			detail: detail,
			path:   e.Target,
		})
	}
	return rows
}

func appendList(detail []string, label string, items []string) []string {
	if len(items) == 0 {
		return detail
	}
	detail = append(detail, "", label)
	for _, it := range items {
		detail = append(detail, "  "+it)
	}
	return detail
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// preview returns the first n non-empty lines of text.
func preview(text string, n int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return helpStyle.Render(strings.Join(out, "\n"))
}
