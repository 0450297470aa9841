// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Claudius.
// This file, tui.go, is the main entry point for the TUI, containing the
// top-level model that acts as a router to all other sub-views.
package tui // import "github.com/iclaudius/claudius/internal/tui"

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/state"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	// menuView is the main dashboard and navigation menu.
	menuView viewState = iota
	listView
	formView
	languageView
)

type (
	backToMenuMsg struct{}
	backToListMsg struct{}
	// languageChangedMsg signals that the UI should be re-initialized.
	languageChangedMsg struct{}
	// refreshDoneMsg arrives when a background scan finished.
	refreshDoneMsg struct{}
	// dashboardUpdatedMsg arrives when the watcher refreshed the dashboard.
	dashboardUpdatedMsg struct{}
)

// mainModel is the top-level model for the TUI. It acts as a state machine
// and router, delegating updates and view rendering to the currently active sub-model.
type mainModel struct {
	state    viewState
	deps     *Deps
	menu     menuModel
	list     *listModel
	form     *formModel
	language languageModel
	view     state.View
	spinner  spinner.Model
	loading  bool
	width    int
	height   int
	err      error
}

// languageModel holds the state for the language selection menu.
type languageModel struct {
	choices     map[string]string // map of lang code to display name
	orderedKeys []string          // for stable iteration
	cursor      int
}

func newModel(d *Deps) mainModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = selectedItemStyle
	m := mainModel{
		state:   menuView,
		deps:    d,
		menu:    newMenuModel(),
		spinner: s,
	}
	if d.Dashboard != nil {
		m.view = d.Dashboard.Current()
		m.loading = m.view.Loading || m.view.Snapshot == nil
	}
	return m
}

// Init kicks off the first scan and starts listening for watcher updates.
func (m mainModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.view.Snapshot == nil {
		cmds = append(cmds, m.refreshCmd())
	}
	if len(m.deps.Watch) > 0 {
		cmds = append(cmds, m.waitForUpdate())
	}
	return tea.Batch(cmds...)
}

// refreshCmd runs a background refresh and reports when it is done.
func (m *mainModel) refreshCmd() tea.Cmd {
	if m.deps.Dashboard == nil {
		return nil
	}
	m.loading = true
	d, ctx := m.deps.Dashboard, m.deps.ctx()
	return func() tea.Msg {
		<-d.RefreshAsync(ctx)
		return refreshDoneMsg{}
	}
}

func (m mainModel) waitForUpdate() tea.Cmd {
	d := m.deps.Dashboard
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		<-d.Updates()
		return dashboardUpdatedMsg{}
	}
}

// syncView copies the dashboard state into the model and the open list.
func (m *mainModel) syncView() {
	if m.deps.Dashboard == nil {
		return
	}
	m.view = m.deps.Dashboard.Current()
	m.loading = m.view.Loading
	if m.list != nil {
		m.list.setView(m.view)
	}
}

// Update is the main message loop. It handles all events (like key presses and
// window size changes) and delegates them to the active sub-model.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings that work everywhere.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.list != nil {
			m.list.resize(msg.Width, msg.Height)
		}
		return m, nil
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case refreshDoneMsg:
		m.syncView()
		return m, nil
	case dashboardUpdatedMsg:
		m.syncView()
		return m, m.waitForUpdate()
	case actionResultMsg:
		if m.state == formView {
			m.state = listView
			m.form = nil
		}
		if m.list != nil {
			m.list.status, m.list.err = msg.text, msg.err
		}
		if msg.err != nil {
			logging.Warnf("action failed: %v", msg.err)
		}
		if msg.refresh {
			cmd = m.refreshCmd()
			return m, cmd
		}
		return m, nil
	case backToMenuMsg:
		m.state = menuView
		m.list = nil
		return m, nil
	case backToListMsg:
		m.state = listView
		m.form = nil
		return m, nil
	case openCommandFormMsg:
		m.form = newCommandForm(m.deps, msg.kind)
		m.state = formView
		return m, m.form.Init()
	case openRuleFormMsg:
		m.form = newRuleForm(m.deps, msg.path)
		m.state = formView
		return m, m.form.Init()
	case openCronFormMsg:
		m.form = newCronForm(m.deps)
		m.state = formView
		return m, m.form.Init()
	case languageChangedMsg:
		// Re-initialize the entire model to apply new translations everywhere.
		fresh := newModel(m.deps)
		fresh.width = m.width
		fresh.height = m.height
		fresh.err = m.err
		fresh.loading = fresh.loading || m.loading
		// The old spinner's ticks carry its ID and are dropped by the new one.
		return fresh, fresh.spinner.Tick
	}

	switch m.state {
	case listView:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" && !m.list.isFiltering && !m.list.confirmDelete {
			cmd = m.refreshCmd()
			return m, cmd
		}
		_, cmd = m.list.Update(msg)

	case formView:
		_, cmd = m.form.Update(msg)

	case languageView:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q", "esc":
				m.state = menuView
				return m, nil
			case "up", "k":
				if m.language.cursor > 0 {
					m.language.cursor--
				}
			case "down", "j":
				if m.language.cursor < len(m.language.orderedKeys)-1 {
					m.language.cursor++
				}
			case "enter":
				if len(m.language.orderedKeys) == 0 {
					return m, nil
				}
				langCode := m.language.orderedKeys[m.language.cursor]
				i18n.SetLang(langCode)
				m.err = nil
				if cfg := m.deps.Config; cfg != nil {
					cfg.Language = langCode
					if m.deps.SaveConfig != nil {
						if err := m.deps.SaveConfig(cfg); err != nil {
							m.err = fmt.Errorf("failed to save config: %w", err)
						}
					}
				}
				// Signal that the language has changed so the entire UI can be re-initialized.
				return m, func() tea.Msg { return languageChangedMsg{} }
			}
		}

	default: // menuView
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q":
				return m, tea.Quit
			case "up", "k":
				if m.menu.cursor > 0 {
					m.menu.cursor--
				}
			case "down", "j":
				if m.menu.cursor < len(m.menu.choices)-1 {
					m.menu.cursor++
				}
			case "r":
				cmd = m.refreshCmd()
				return m, cmd
			case "L":
				m.openLanguage()
			case "enter":
				if m.menu.cursor < len(sections) {
					m.list = newListModel(sections[m.menu.cursor], m.deps, m.view, m.width, m.height)
					m.state = listView
					return m, nil
				}
				m.openLanguage()
			}
		}
	}

	return m, cmd
}

func (m *mainModel) openLanguage() {
	m.state = languageView
	m.language = newLanguageModel()
}

// View renders the TUI. It's called after every Update and delegates rendering
// to the currently active sub-model.
func (m mainModel) View() string {
	var body string
	switch m.state {
	case listView:
		body = m.list.View()
		if m.loading {
			body = lipgloss.JoinVertical(lipgloss.Left, body, helpStyle.Render(loadingLabel(m.spinner.View())))
		}
	case formView:
		body = m.form.View()
	case languageView:
		body = m.language.View()
	default: // menuView
		loading := ""
		if m.loading {
			loading = loadingLabel(m.spinner.View())
		}
		body = m.menu.View(m.view, loading, m.width, m.height)
	}
	if m.err != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, errorStyle.Render(m.err.Error()))
	}
	return body
}

// newLanguageModel creates a new model for the language selection view.
func newLanguageModel() languageModel {
	choices := i18n.GetAvailableLocales()
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cursor := 0
	for i, k := range keys {
		if k == i18n.GetLang() {
			cursor = i
		}
	}
	return languageModel{choices: choices, orderedKeys: keys, cursor: cursor}
}

// View for languageModel.
func (m languageModel) View() string {
	title := mainTitleStyle.Render("🌐 " + i18n.T("menu.language"))

	listItems := []string{titleStyle.Render(i18n.T("language.select")), ""}
	for i, langCode := range m.orderedKeys {
		displayName := m.choices[langCode]
		if m.cursor == i {
			listItems = append(listItems, selectedItemStyle.Render("▸ "+displayName))
		} else {
			listItems = append(listItems, itemStyle.Render("  "+displayName))
		}
	}

	listPane := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, listItems...))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("language.help"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, "", listPane, "", helpLine)
}

// Run is the main entrypoint for the TUI. It starts the optional file
// watcher and runs the Bubble Tea program until the user quits.
func Run(ctx context.Context, d *Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.runCtx = ctx
	if d.Dashboard != nil && len(d.Watch) > 0 {
		go func() {
			if err := d.Dashboard.Watch(ctx, d.Watch, state.DefaultDebounce); err != nil {
				logging.Warnf("watch: %v", err)
			}
		}()
	}

	if _, err := tea.NewProgram(newModel(d), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		logging.Errorf("TUI run error: %v", err)
		return err
	}
	return nil
}
