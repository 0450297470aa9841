// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/state"
)

// Messages a list sends up to the main model.
type (
	openCommandFormMsg struct{ kind model.CommandKind }
	openRuleFormMsg    struct{ path string }
	openCronFormMsg    struct{}
)

// listModel is a filterable table with a detail pane, shared by every
// section of the configuration.
type listModel struct {
	section     section
	deps        *Deps
	table       table.Model
	columns     []column
	allRows     []listRow
	shown       []listRow
	filter      string
	filterCol   int // 0=all, then one per column
	isFiltering bool

	// confirmDelete is set while a cron deletion waits for y/n.
	confirmDelete bool

	status string
	err    error
	width  int
	height int
}

func newListModel(s section, deps *Deps, v state.View, width, height int) *listModel {
	m := &listModel{section: s, deps: deps, columns: sectionColumns(s)}
	m.table = table.New(
		table.WithColumns(tableColumns(m.columns)),
		table.WithFocused(true),
		table.WithHeight(15), // Placeholder height
	)
	m.table.SetStyles(tableStyles())
	m.setView(v)
	m.resize(width, height)
	return m
}

// setView replaces the rows after a refresh, keeping filter and cursor.
func (m *listModel) setView(v state.View) {
	m.allRows = sectionRows(m.section, v)
	cursor := m.table.Cursor()
	m.rebuildTableRows()
	if cursor < len(m.shown) {
		m.table.SetCursor(cursor)
	}
}

func (m *listModel) resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	m.width, m.height = width, height
	// title(3) + footer(2) + table header(2)
	m.table.SetHeight(max(height-8, 3))
	m.table.SetWidth(m.tableWidth())
}

func (m *listModel) tableWidth() int {
	w := 0
	for _, c := range m.columns {
		w += c.width + 2
	}
	if m.width > 0 && w > m.width*2/3 {
		w = m.width * 2 / 3
	}
	return w
}

// rebuildTableRows filters the master list of rows and populates the table.
func (m *listModel) rebuildTableRows() {
	lowerFilter := strings.ToLower(m.filter)
	m.shown = m.shown[:0]
	var rows []table.Row
	for _, r := range m.allRows {
		if m.filter != "" && !m.matches(r, lowerFilter) {
			continue
		}
		m.shown = append(m.shown, r)

		cells := make(table.Row, len(r.cells))
		for i, c := range r.cells {
			if i < len(m.columns) {
				c = truncate(c, m.columns[i].width)
			}
			cells[i] = c
		}
		// The table's Selected style overrides these for the current row.
		switch {
		case r.dimmed:
			cells[0] = inactiveItemStyle.Render(cells[0])
		case r.warning:
			cells[0] = specialStyle.Render(cells[0])
		}
		rows = append(rows, cells)
	}
	m.table.SetRows(rows)

	// Go to the top of the table after filtering
	if m.isFiltering {
		m.table.GotoTop()
	}
}

func (m *listModel) matches(r listRow, lowerFilter string) bool {
	if m.filterCol == 0 {
		for _, c := range r.cells {
			if strings.Contains(strings.ToLower(c), lowerFilter) {
				return true
			}
		}
		return false
	}
	i := m.filterCol - 1
	return i < len(r.cells) && strings.Contains(strings.ToLower(r.cells[i]), lowerFilter)
}

// selected returns the row under the cursor.
func (m *listModel) selected() (listRow, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return listRow{}, false
	}
	return m.shown[i], true
}

func (m *listModel) Init() tea.Cmd { return nil }

func (m *listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.confirmDelete {
			m.confirmDelete = false
			if msg.String() == "y" {
				if row, ok := m.selected(); ok && row.job != nil {
					return m, removeCronCmd(m.deps, *row.job)
				}
			}
			m.status = i18n.T("cron.delete_cancelled")
			return m, nil
		}

		// If filtering, handle input.
		if m.isFiltering {
			cols := len(m.columns) + 1
			switch msg.Type {
			case tea.KeyEsc:
				m.isFiltering = false
				m.filter = ""
				m.rebuildTableRows()
			case tea.KeyEnter:
				m.isFiltering = false
			case tea.KeyBackspace:
				if len(m.filter) > 0 {
					r := []rune(m.filter)
					m.filter = string(r[:len(r)-1])
					m.rebuildTableRows()
				}
			case tea.KeyRunes, tea.KeySpace:
				m.filter += string(msg.Runes)
				m.rebuildTableRows()
			case tea.KeyTab:
				m.filterCol = (m.filterCol + 1) % cols
				m.rebuildTableRows()
			case tea.KeyShiftTab:
				m.filterCol = (m.filterCol + cols - 1) % cols
				m.rebuildTableRows()
			}
			return m, nil
		}

		// Not filtering, handle commands.
		switch msg.String() {
		case "/":
			m.isFiltering = true
			m.filter = ""
			m.rebuildTableRows()
			return m, nil
		case "q", "esc":
			if m.filter != "" {
				m.filter = ""
				m.isFiltering = false
				m.rebuildTableRows()
				return m, nil
			}
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "c":
			if row, ok := m.selected(); ok && row.path != "" {
				return m, copyCmd(m.deps, row.path)
			}
			return m, nil
		case "n":
			if m.section == sectionCommands {
				return m, func() tea.Msg { return openCommandFormMsg{kind: model.KindCommand} }
			}
		case "s":
			if m.section == sectionCommands {
				return m, func() tea.Msg { return openCommandFormMsg{kind: model.KindSkill} }
			}
		case "g":
			if m.section == sectionCommands {
				return m, func() tea.Msg { return openCommandFormMsg{kind: model.KindAgent} }
			}
		case "a":
			switch m.section {
			case sectionInstructions:
				if row, ok := m.selected(); ok {
					path := row.path
					return m, func() tea.Msg { return openRuleFormMsg{path: path} }
				}
				return m, nil
			case sectionCron:
				return m, func() tea.Msg { return openCronFormMsg{} }
			}
		case "t", " ":
			if m.section == sectionCron {
				if row, ok := m.selected(); ok && row.job != nil {
					return m, toggleCronCmd(m.deps, *row.job)
				}
				return m, nil
			}
		case "d", "x":
			if m.section == sectionCron {
				if _, ok := m.selected(); ok {
					m.confirmDelete = true
				}
				return m, nil
			}
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *listModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.section.title()) + "\n")

	if len(m.shown) == 0 {
		empty := i18n.T("list.empty")
		if m.filter != "" {
			empty = i18n.T("list.no_match")
		}
		b.WriteString(helpStyle.Render(empty) + "\n")
		b.WriteString(m.footerView())
		return b.String()
	}

	detailWidth := m.width - m.tableWidth() - 8
	main := m.table.View()
	if detailWidth >= 20 {
		detail := paneStyle.Width(detailWidth).Render(m.detailContentView(detailWidth - 4))
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", detail)
	}
	b.WriteString(main)
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

// detailContentView builds the string content for the detail pane.
func (m *listModel) detailContentView(width int) string {
	var items []string
	if m.err != nil {
		items = append(items, errorStyle.Render(i18n.T("error.prefix", m.err)), "")
	} else if m.status != "" {
		items = append(items, statusMessageStyle.Render(m.status), "")
	}
	if m.confirmDelete {
		box := dialogBoxStyle.Width(min(width, 60)).Render(specialStyle.Render(i18n.T("cron.delete_confirm")))
		items = append(items, box, "")
	}
	if row, ok := m.selected(); ok {
		for _, line := range row.detail {
			items = append(items, lipgloss.NewStyle().Width(width).Render(line))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// footerView renders the help text at the bottom of the page.
func (m *listModel) footerView() string {
	colNames := []string{i18n.T("all")}
	for _, c := range m.columns {
		colNames = append(colNames, c.title)
	}
	col := colNames[m.filterCol%len(colNames)]
	filterStatus := getFilterStatusLine(m.isFiltering, m.filter, col)

	help := i18n.T("list.footer")
	switch m.section {
	case sectionCommands:
		help += "  " + i18n.T("list.footer_commands")
	case sectionInstructions:
		help += "  " + i18n.T("list.footer_instructions")
	case sectionCron:
		help += "  " + i18n.T("list.footer_cron")
	}
	count := fmt.Sprintf("%d/%d", len(m.shown), len(m.allRows))
	return footerStyle.Render(AlignFooter(help+"  "+filterStatus, count, max(m.width-2, 0)))
}
