// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iclaudius/claudius/internal/config"
	"github.com/iclaudius/claudius/internal/editor"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/state"
)

var errNoCron = errors.New("crontab editing is not available")

// CronEditor changes the user's crontab. *cron.Crontab satisfies it.
type CronEditor interface {
	Add(ctx context.Context, schedule, command, comment string) (string, error)
	Remove(ctx context.Context, index int) (string, error)
	SetEnabled(ctx context.Context, index int, enabled bool) (string, error)
}

// Deps is everything the TUI reads from and writes to.
type Deps struct {
	Dashboard *state.Dashboard
	Editor    *editor.Editor
	Cron      CronEditor
	Config    *config.Config
	// SaveConfig persists Config after a language change. Nil skips saving.
	SaveConfig func(*config.Config) error
	// Copy puts text on the clipboard. Nil uses the system clipboard.
	Copy func(string) error
	// Watch lists directories to watch for changes. Nil disables watching.
	Watch []string

	runCtx context.Context
}

func (d *Deps) ctx() context.Context {
	if d.runCtx != nil {
		return d.runCtx
	}
	return context.Background()
}

func (d *Deps) copy(text string) error {
	if d.Copy != nil {
		return d.Copy(text)
	}
	return clipboard.WriteAll(text)
}

// actionResultMsg reports the outcome of a write. refresh asks the main
// model to rescan.
type actionResultMsg struct {
	text    string
	err     error
	refresh bool
}

func copyCmd(d *Deps, text string) tea.Cmd {
	return func() tea.Msg {
		if err := d.copy(text); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{text: i18n.T("list.copied", text)}
	}
}

func toggleCronCmd(d *Deps, job model.CronJob) tea.Cmd {
	return func() tea.Msg {
		if d.Cron == nil {
			return actionResultMsg{err: errNoCron}
		}
		text, err := d.Cron.SetEnabled(d.ctx(), job.Index, !job.Enabled)
		if err != nil {
			logging.Warnf("toggle cron job %d: %v", job.Index, err)
		}
		return actionResultMsg{text: text, err: err, refresh: err == nil}
	}
}

func removeCronCmd(d *Deps, job model.CronJob) tea.Cmd {
	return func() tea.Msg {
		if d.Cron == nil {
			return actionResultMsg{err: errNoCron}
		}
		text, err := d.Cron.Remove(d.ctx(), job.Index)
		if err != nil {
			logging.Warnf("remove cron job %d: %v", job.Index, err)
		}
		return actionResultMsg{text: text, err: err, refresh: err == nil}
	}
}
