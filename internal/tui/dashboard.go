// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/state"
)

const (
	menuWidth       = 38
	topFindingCount = 5
	recentChanges   = 5
)

// menuModel holds the state for the main menu.
type menuModel struct {
	choices []string // The menu items to show.
	cursor  int      // Which menu item our cursor is pointing at.
}

func newMenuModel() menuModel {
	var choices []string
	for _, s := range sections {
		choices = append(choices, s.title())
	}
	choices = append(choices, i18n.T("menu.language"))
	return menuModel{choices: choices}
}

// View renders the main menu and dashboard.
func (m menuModel) View(v state.View, loading string, width, height int) string {
	title := mainTitleStyle.Render("◆ " + i18n.T("dashboard.title"))
	subTitle := helpStyle.Render(i18n.T("dashboard.subtitle"))
	header := lipgloss.JoinVertical(lipgloss.Left, title, subTitle)

	// Menu List (Left Pane)
	menuItems := []string{paneTitleStyle.Render(i18n.T("menu.navigation")), ""}
	for i, choice := range m.choices {
		if m.cursor == i {
			menuItems = append(menuItems, selectedItemStyle.Render("▸ "+choice))
		} else {
			menuItems = append(menuItems, itemStyle.Render("  "+choice))
		}
	}
	menuContent := lipgloss.JoinVertical(lipgloss.Left, menuItems...)

	dashboardWidth := max(width-4-menuWidth-2, 30)
	dashboardContent := renderDashboard(v, dashboardWidth-6)

	footerHeight := 1
	paneHeight := max(height-lipgloss.Height(header)-footerHeight-2, 10)

	leftPane := paneStyle.Width(menuWidth).Height(paneHeight).Render(menuContent)
	rightPane := paneStyle.Width(dashboardWidth).Height(paneHeight).MarginLeft(2).Render(dashboardContent)
	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	right := loading
	if right == "" && !v.LoadedAt.IsZero() {
		right = i18n.T("dashboard.updated", v.LoadedAt.Format("15:04:05"))
	}
	footer := footerStyle.Render(AlignFooter(i18n.T("dashboard.footer"), right, max(width-2, 0)))

	return lipgloss.JoinVertical(lipgloss.Top, header, mainArea, footer)
}

// renderDashboard builds the right pane from the latest scan.
func renderDashboard(v state.View, width int) string {
	snap, report := v.Snapshot, v.Report
	if snap == nil || report == nil {
		if v.Err != nil {
			return errorStyle.Render(i18n.T("dashboard.scan_failed", v.Err))
		}
		return helpStyle.Render(i18n.T("dashboard.loading"))
	}

	var items []string
	if v.Err != nil {
		items = append(items, errorStyle.Render(i18n.T("dashboard.scan_failed", v.Err)), "")
	}

	// Assistant
	items = append(items, paneTitleStyle.Render(i18n.T("dashboard.assistant")), "")
	version := helpStyle.Render(i18n.T("dashboard.not_installed"))
	if snap.AssistantVersion != "" {
		version = snap.AssistantVersion
	}
	sessions := helpStyle.Render("0")
	if snap.RunningSessions > 0 {
		sessions = successStyle.Render(fmt.Sprint(snap.RunningSessions))
	}
	items = append(items, labelled([][2]string{
		{i18n.T("dashboard.version"), version},
		{i18n.T("dashboard.sessions"), sessions},
		{i18n.T("dashboard.config_dir"), truncate(snap.ConfigDir, max(width-20, 10))},
	})...)

	// Inventory
	s := report.Summary
	items = append(items, "", paneTitleStyle.Render(i18n.T("dashboard.inventory")), "")
	items = append(items, labelled([][2]string{
		{i18n.T("dashboard.instructions"), fmt.Sprint(s.Instructions)},
		{i18n.T("dashboard.commands"), i18n.T("dashboard.commands_value", s.Commands, s.Skills, s.Agents)},
		{i18n.T("dashboard.plugins"), fmt.Sprint(s.Plugins)},
		{i18n.T("dashboard.settings"), fmt.Sprint(s.Settings)},
		{i18n.T("dashboard.mcp_servers"), fmt.Sprint(s.MCPServers)},
		{i18n.T("dashboard.cron_jobs"), i18n.T("dashboard.cron_value", s.CronJobs, len(snap.AssistantCronJobs()))},
	})...)

	// Health
	items = append(items, "", paneTitleStyle.Render(i18n.T("dashboard.health")), "")
	score := gradeStyle(report.Safety.Grade).Render(fmt.Sprintf("%d/100 (%s)", report.Safety.Score, report.Safety.Grade))
	issues := successStyle.Render("0")
	if s.Issues > 0 {
		issues = specialStyle.Render(fmt.Sprint(s.Issues))
	}
	items = append(items, labelled([][2]string{
		{i18n.T("dashboard.safety"), score},
		{i18n.T("dashboard.coverage"), fmt.Sprintf("%d%%", report.Coverage.Percent)},
		{i18n.T("dashboard.conflicts"), fmt.Sprint(len(report.Conflicts))},
		{i18n.T("dashboard.issues"), issues},
	})...)

	// Top findings
	items = append(items, "", paneTitleStyle.Render(i18n.T("dashboard.top_findings")), "")
	findings := report.TopFindings(topFindingCount)
	if len(findings) == 0 {
		items = append(items, successStyle.Render(i18n.T("dashboard.no_findings")))
	}
	for _, f := range findings {
		sev := severityStyle(f.Severity).Render(fmt.Sprintf("%-7s", f.Severity))
		items = append(items, sev+" "+truncate(f.Message, max(width-9, 10)))
	}

	// Recent changes
	items = append(items, "", paneTitleStyle.Render(i18n.T("dashboard.recent_changes")), "")
	recent := changelog.Recent(snap.Changes, recentChanges)
	if len(recent) == 0 {
		items = append(items, helpStyle.Render(i18n.T("dashboard.no_changes")))
	}
	for _, e := range recent {
		ts := e.Timestamp.Local().Format("01-02 15:04")
		actor := specialStyle.Render(e.Actor)
		if e.Actor == changelog.ActorUser {
			actor = successStyle.Render(e.Actor)
		}
		avail := max(width-len(ts)-len(e.Actor)-2, 10)
		items = append(items, lipgloss.JoinHorizontal(lipgloss.Left,
			helpStyle.Render(ts), " ", actor, " ", truncate(e.Summary, avail)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// labelled aligns label/value pairs on the longest label.
func labelled(pairs [][2]string) []string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = formatLabelPadding(p[0], p[1], width)
	}
	return out
}

// loadingLabel is the footer token shown while a scan runs.
func loadingLabel(spinnerView string) string {
	return strings.TrimSpace(spinnerView + " " + i18n.T("dashboard.scanning"))
}
