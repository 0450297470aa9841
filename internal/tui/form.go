// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iclaudius/claudius/internal/cron"
	"github.com/iclaudius/claudius/internal/editor"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
)

// formField describes one input of a form.
type formField struct {
	prompt      string
	placeholder string
	charLimit   int
}

// formModel is a column of text inputs with a submit button. submit runs
// on enter over the button and returns the message shown after success.
type formModel struct {
	title      string
	hint       func(values []string) string
	inputs     []textinput.Model
	focusIndex int
	submit     func(values []string) (string, error)
	err        error
}

func newFormModel(title string, fields []formField, submit func([]string) (string, error)) *formModel {
	m := &formModel{title: title, submit: submit, inputs: make([]textinput.Model, len(fields))}
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.prompt))
	}
	for i, f := range fields {
		t := textinput.New()
		t.Cursor.Style = focusedStyle
		t.CharLimit = f.charLimit
		if t.CharLimit == 0 {
			t.CharLimit = 256
		}
		t.Width = 50
		t.Prompt = f.prompt + strings.Repeat(" ", width-lipgloss.Width(f.prompt)+1)
		t.Placeholder = f.placeholder
		m.inputs[i] = t
	}
	m.focus(0)
	return m
}

func (m *formModel) focus(i int) {
	m.focusIndex = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
			m.inputs[j].PromptStyle = focusedStyle
			m.inputs[j].TextStyle = focusedStyle
		} else {
			m.inputs[j].Blur()
			m.inputs[j].PromptStyle = blurredStyle
			m.inputs[j].TextStyle = formItemStyle
		}
	}
}

func (m *formModel) values() []string {
	out := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (m *formModel) Init() tea.Cmd { return textinput.Blink }

func (m *formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, func() tea.Msg { return backToListMsg{} }

		case "tab", "shift+tab", "enter", "up", "down":
			s := key.String()
			// Did the user press enter while the submit button was focused?
			if s == "enter" && m.focusIndex == len(m.inputs) {
				text, err := m.submit(m.values())
				if err != nil {
					m.err = err
					return m, nil
				}
				return m, func() tea.Msg { return actionResultMsg{text: text, refresh: true} }
			}

			next := m.focusIndex
			if s == "up" || s == "shift+tab" {
				next--
			} else {
				next++
			}
			if next > len(m.inputs) {
				next = 0
			} else if next < 0 {
				next = len(m.inputs)
			}
			m.focus(next)
			return m, nil
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *formModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	for _, in := range m.inputs {
		b.WriteString("  " + in.View() + "\n")
	}

	button := buttonStyle.Render(i18n.T("form.submit"))
	if m.focusIndex == len(m.inputs) {
		button = activeButtonStyle.Render(i18n.T("form.submit"))
	}
	b.WriteString("\n  " + button + "\n")

	if m.hint != nil {
		if h := m.hint(m.values()); h != "" {
			b.WriteString("\n  " + helpStyle.Render(h) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n  " + errorStyle.Render(formError(m.err)) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render(i18n.T("form.help")))
	return b.String()
}

// formError turns a write error into a user-facing sentence.
func formError(err error) string {
	switch {
	case errors.Is(err, editor.ErrExists):
		return i18n.T("form.error.exists", err)
	case errors.Is(err, editor.ErrInvalidName):
		return i18n.T("form.error.invalid_name", err)
	case errors.Is(err, cron.ErrInvalidSchedule):
		return i18n.T("form.error.invalid_schedule", err)
	}
	return i18n.T("error.prefix", err)
}

// newCommandForm creates the form for a new command, skill or agent. An
// empty project field targets the user configuration directory.
func newCommandForm(d *Deps, kind model.CommandKind) *formModel {
	fields := []formField{
		{prompt: i18n.T("form.name"), placeholder: "deploy", charLimit: 64},
		{prompt: i18n.T("form.description"), placeholder: i18n.T("form.description_placeholder")},
		{prompt: i18n.T("form.body"), placeholder: i18n.T("form.body_placeholder"), charLimit: 2000},
		{prompt: i18n.T("form.project"), placeholder: i18n.T("form.project_placeholder")},
	}
	if kind == model.KindAgent {
		fields = append(fields, formField{prompt: i18n.T("form.tools"), placeholder: "Read, Grep, Bash"})
	}

	title := i18n.T("form.new_" + string(kind))
	return newFormModel(title, fields, func(v []string) (string, error) {
		if d.Editor == nil {
			return "", errors.New("editing is not available")
		}
		target := editor.UserTarget
		if v[3] != "" {
			target = editor.ProjectTarget(v[3])
		}
		ctx := d.ctx()
		var (
			path string
			err  error
		)
		switch kind {
		case model.KindSkill:
			path, err = d.Editor.CreateSkill(ctx, target, v[0], v[1], v[2])
		case model.KindAgent:
			path, err = d.Editor.CreateAgent(ctx, target, v[0], v[1], splitTools(v[4]), v[2])
		default:
			path, err = d.Editor.CreateCommand(ctx, target, v[0], v[1], v[2])
		}
		if err != nil {
			return "", err
		}
		return i18n.T("form.created", path), nil
	})
}

func splitTools(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// newRuleForm appends one rule to the instruction file at path.
func newRuleForm(d *Deps, path string) *formModel {
	fields := []formField{{prompt: i18n.T("form.rule"), placeholder: i18n.T("form.rule_placeholder"), charLimit: 500}}
	m := newFormModel(i18n.T("form.append_rule"), fields, func(v []string) (string, error) {
		if d.Editor == nil {
			return "", errors.New("editing is not available")
		}
		if err := d.Editor.AppendInstruction(d.ctx(), path, v[0]); err != nil {
			return "", err
		}
		return i18n.T("editor.appended", path), nil
	})
	m.hint = func([]string) string { return path }
	return m
}

// newCronForm adds a job to the crontab. The hint describes the schedule
// as it is typed.
func newCronForm(d *Deps) *formModel {
	fields := []formField{
		{prompt: i18n.T("form.schedule"), placeholder: "0 9 * * 1-5", charLimit: 64},
		{prompt: i18n.T("form.command"), placeholder: "claude -p \"/daily-report\"", charLimit: 500},
		{prompt: i18n.T("form.comment"), placeholder: i18n.T("form.comment_placeholder")},
	}
	m := newFormModel(i18n.T("form.new_cron"), fields, func(v []string) (string, error) {
		if d.Cron == nil {
			return "", errNoCron
		}
		return d.Cron.Add(d.ctx(), v[0], v[1], v[2])
	})
	m.hint = func(v []string) string {
		if v[0] == "" {
			return ""
		}
		if err := cron.ValidateSchedule(v[0]); err != nil {
			return i18n.T("form.schedule_invalid")
		}
		return cron.Describe(v[0])
	}
	return m
}
