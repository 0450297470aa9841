// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/config"
	"github.com/iclaudius/claudius/internal/editor"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/scanner"
	"github.com/iclaudius/claudius/internal/state"
	"github.com/iclaudius/claudius/internal/testutil"
)

type cronCall struct {
	op      string
	index   int
	enabled bool
	args    []string
}

type fakeCronEditor struct {
	mu    sync.Mutex
	calls []cronCall
	err   error
}

func (f *fakeCronEditor) record(c cronCall) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return "", f.err
	}
	return c.op + " ok", nil
}

func (f *fakeCronEditor) Add(_ context.Context, schedule, command, comment string) (string, error) {
	return f.record(cronCall{op: "add", args: []string{schedule, command, comment}})
}

func (f *fakeCronEditor) Remove(_ context.Context, index int) (string, error) {
	return f.record(cronCall{op: "remove", index: index})
}

func (f *fakeCronEditor) SetEnabled(_ context.Context, index int, enabled bool) (string, error) {
	return f.record(cronCall{op: "toggle", index: index, enabled: enabled})
}

type harness struct {
	fixture *testutil.Fixture
	deps    *Deps
	cron    *fakeCronEditor
	copied  []string
	saved   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	i18n.Init("en")
	f := testutil.NewFixture(t)
	f.Populate()
	l := f.Layout()

	jobs := []model.CronJob{{Index: 0, Line: "0 9 * * * /usr/local/bin/backup", Schedule: "0 9 * * *", Command: "/usr/local/bin/backup", Enabled: true}}
	sc := scanner.New(l, scanner.Options{
		Prober: &testutil.FakeProber{VersionString: "2.0.14", Running: 2},
		Cron:   &testutil.FakeCron{Jobs: jobs},
	})
	dash := state.New(sc, analyzer.Options{}, nil, nil)
	if err := dash.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	h := &harness{fixture: f, cron: &fakeCronEditor{}}
	h.deps = &Deps{
		Dashboard: dash,
		Editor:    editor.New(l, changelog.New(l.ChangeLog(), nil), nil),
		Cron:      h.cron,
		Config:    &config.Config{Language: "en"},
		SaveConfig: func(c *config.Config) error {
			h.saved = append(h.saved, c.Language)
			return nil
		},
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	}
	return h
}

func (h *harness) model() mainModel {
	m := newModel(h.deps)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	return next.(mainModel)
}

func press(t *testing.T, m mainModel, keys ...string) (mainModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := m.Update(msg)
		m = next.(mainModel)
		cmd = c
	}
	return m, cmd
}

// deliver runs cmd and feeds its message back into the model.
func deliver(t *testing.T, m mainModel, cmd tea.Cmd) (mainModel, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, c := m.Update(cmd())
	return next.(mainModel), c
}

func openSection(t *testing.T, m mainModel, s section) mainModel {
	t.Helper()
	for i := 0; i < int(s); i++ {
		m, _ = press(t, m, "down")
	}
	m, _ = press(t, m, "enter")
	if m.state != listView || m.list == nil || m.list.section != s {
		t.Fatalf("expected list view for section %d, got state %d", s, m.state)
	}
	return m
}

func TestMenuView_ShowsDashboard(t *testing.T) {
	h := newHarness(t)
	out := h.model().View()
	for _, want := range []string{"2.0.14", "75/100 (B)", "tightened rules", "Instructions"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestRenderDashboard_Loading(t *testing.T) {
	i18n.Init("en")
	if out := renderDashboard(state.View{}, 60); !strings.Contains(out, "Scanning") {
		t.Fatalf("expected loading text, got %q", out)
	}
	out := renderDashboard(state.View{Err: errors.New("boom")}, 60)
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected error text, got %q", out)
	}
}

func TestMenu_OpenListAndReturn(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionCommands)

	snap := h.deps.Dashboard.Current().Snapshot
	if got := len(m.list.shown); got != len(snap.Commands) {
		t.Fatalf("expected %d command rows, got %d", len(snap.Commands), got)
	}
	if !strings.Contains(m.View(), "/deploy") {
		t.Fatal("commands list should show /deploy")
	}

	m, cmd := press(t, m, "esc")
	m, _ = deliver(t, m, cmd)
	if m.state != menuView || m.list != nil {
		t.Fatalf("expected menu after esc, got state %d", m.state)
	}
}

func TestList_Filter(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionCommands)
	total := len(m.list.shown)

	m, _ = press(t, m, "/", "deploy")
	if !m.list.isFiltering || m.list.filter != "deploy" {
		t.Fatalf("unexpected filter state: %q filtering=%v", m.list.filter, m.list.isFiltering)
	}
	if len(m.list.shown) == 0 || len(m.list.shown) >= total {
		t.Fatalf("filter should narrow the rows, got %d of %d", len(m.list.shown), total)
	}
	for _, r := range m.list.shown {
		if !strings.Contains(strings.ToLower(strings.Join(r.cells, " ")), "deploy") {
			t.Errorf("row %v does not match the filter", r.cells)
		}
	}

	// tab restricts the filter to the first column
	m, _ = press(t, m, "tab")
	if m.list.filterCol != 1 {
		t.Fatalf("filterCol = %d", m.list.filterCol)
	}

	m, _ = press(t, m, "backspace")
	if m.list.filter != "deplo" {
		t.Fatalf("backspace left %q", m.list.filter)
	}

	m, _ = press(t, m, "esc")
	if m.list.isFiltering || m.list.filter != "" || len(m.list.shown) != total {
		t.Fatalf("esc should clear the filter, got %q with %d rows", m.list.filter, len(m.list.shown))
	}
}

func TestList_CopyPath(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionInstructions)
	row, ok := m.list.selected()
	if !ok {
		t.Fatal("expected a selected row")
	}
	m, cmd := press(t, m, "c")
	m, _ = deliver(t, m, cmd)
	if len(h.copied) != 1 || h.copied[0] != row.path {
		t.Fatalf("copied %v, want %s", h.copied, row.path)
	}
	if !strings.Contains(m.list.status, row.path) {
		t.Fatalf("status = %q", m.list.status)
	}
}

func TestCron_ToggleAndDelete(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionCron)

	m, cmd := press(t, m, "t")
	m, refresh := deliver(t, m, cmd)
	if refresh == nil {
		t.Fatal("a successful toggle should refresh")
	}
	if len(h.cron.calls) != 1 || h.cron.calls[0].op != "toggle" || h.cron.calls[0].enabled {
		t.Fatalf("unexpected cron calls: %+v", h.cron.calls)
	}
	if m.list.status != "toggle ok" {
		t.Fatalf("status = %q", m.list.status)
	}

	// anything but y cancels
	m, _ = press(t, m, "d")
	if !m.list.confirmDelete {
		t.Fatal("expected delete confirmation")
	}
	m, _ = press(t, m, "n")
	if m.list.confirmDelete || len(h.cron.calls) != 1 {
		t.Fatalf("deletion should be cancelled: %+v", h.cron.calls)
	}

	m, _ = press(t, m, "d")
	m, cmd = press(t, m, "y")
	_, _ = deliver(t, m, cmd)
	if len(h.cron.calls) != 2 || h.cron.calls[1].op != "remove" || h.cron.calls[1].index != 0 {
		t.Fatalf("unexpected cron calls: %+v", h.cron.calls)
	}
}

func TestCron_FailureShowsError(t *testing.T) {
	h := newHarness(t)
	h.cron.err = errors.New("crontab: permission denied")
	m := openSection(t, h.model(), sectionCron)

	m, cmd := press(t, m, "t")
	m, refresh := deliver(t, m, cmd)
	if refresh != nil {
		t.Fatal("a failed toggle should not refresh")
	}
	if m.list.err == nil || !strings.Contains(m.View(), "permission denied") {
		t.Fatalf("expected the error in the view, err=%v", m.list.err)
	}
}

func TestCronForm_Add(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionCron)

	m, cmd := press(t, m, "a")
	m, _ = deliver(t, m, cmd)
	if m.state != formView {
		t.Fatalf("expected form view, got %d", m.state)
	}
	m, _ = press(t, m, "*/15 * * * *")
	if !strings.Contains(m.View(), "every 15 minutes") {
		t.Fatal("form should describe the schedule")
	}
	m, cmd = press(t, m, "tab", "claude -p hi", "tab", "tab", "enter")
	m, _ = deliver(t, m, cmd)
	if m.state != listView {
		t.Fatalf("expected list view after submit, got %d", m.state)
	}
	if len(h.cron.calls) != 1 || h.cron.calls[0].op != "add" || h.cron.calls[0].args[0] != "*/15 * * * *" || h.cron.calls[0].args[1] != "claude -p hi" {
		t.Fatalf("unexpected cron calls: %+v", h.cron.calls)
	}
}

func TestCommandForm_CreatesCommand(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionCommands)

	m, cmd := press(t, m, "n")
	m, _ = deliver(t, m, cmd)
	if m.state != formView {
		t.Fatalf("expected form view, got %d", m.state)
	}
	m, _ = press(t, m, "lint", "tab", "Run the linters", "tab", "Run make lint.", "tab", "tab")
	m, cmd = press(t, m, "enter")
	m, _ = deliver(t, m, cmd)
	if m.state != listView {
		t.Fatalf("expected list view after submit, got %d", m.state)
	}

	path := filepath.Join(h.fixture.Layout().CommandsDir(), "lint.md")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("command not written: %v", err)
	}
	if !strings.Contains(string(data), "description: Run the linters") || !strings.Contains(string(data), "Run make lint.") {
		t.Fatalf("unexpected file content:\n%s", data)
	}
	if !strings.Contains(m.list.status, path) {
		t.Fatalf("status = %q", m.list.status)
	}
}

func TestCommandForm_DuplicateStaysOpen(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionCommands)

	m, cmd := press(t, m, "n")
	m, _ = deliver(t, m, cmd)
	m, _ = press(t, m, "deploy", "tab", "tab", "tab", "tab")
	m, cmd = press(t, m, "enter")
	if cmd != nil {
		t.Fatal("a failed create should not leave the form")
	}
	if m.state != formView || !errors.Is(m.form.err, editor.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", m.form.err)
	}
	if !strings.Contains(m.View(), "already exists") {
		t.Fatal("form should explain the error")
	}

	m, cmd = press(t, m, "esc")
	m, _ = deliver(t, m, cmd)
	if m.state != listView {
		t.Fatalf("esc should return to the list, got %d", m.state)
	}
}

func TestRuleForm_Appends(t *testing.T) {
	h := newHarness(t)
	m := openSection(t, h.model(), sectionInstructions)
	path := h.fixture.Path(".claude/CLAUDE.md")

	m, _ = deliver(t, m, func() tea.Msg { return openRuleFormMsg{path: path} })
	m, _ = press(t, m, "Keep commits small.", "tab")
	m, cmd := press(t, m, "enter")
	_, _ = deliver(t, m, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "- Keep commits small.\n") {
		t.Fatalf("rule not appended:\n%s", data)
	}
}

func TestRefreshKey(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m, cmd := press(t, m, "r")
	if !m.loading {
		t.Fatal("expected loading after r")
	}
	if !strings.Contains(m.View(), "Scanning") {
		t.Fatal("expected a loading indicator")
	}
	m, _ = deliver(t, m, cmd)
	if m.loading || m.view.Snapshot == nil {
		t.Fatalf("unexpected state after refresh: loading=%v", m.loading)
	}
}

func TestLanguageSelection_SavesConfig(t *testing.T) {
	h := newHarness(t)
	t.Cleanup(func() { i18n.SetLang("en") })

	m, _ := press(t, h.model(), "L")
	if m.state != languageView {
		t.Fatalf("expected language view, got %d", m.state)
	}
	idx := -1
	for i, k := range m.language.orderedKeys {
		if k == "de" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("de not offered: %v", m.language.orderedKeys)
	}
	m.language.cursor = idx
	m, cmd := press(t, m, "enter")
	if i18n.GetLang() != "de" || h.deps.Config.Language != "de" {
		t.Fatalf("language not applied: %s / %s", i18n.GetLang(), h.deps.Config.Language)
	}
	if len(h.saved) != 1 || h.saved[0] != "de" {
		t.Fatalf("config not saved: %v", h.saved)
	}
	m, tick := deliver(t, m, cmd)
	if m.state != menuView || m.width != 160 {
		t.Fatalf("model not re-initialised: state %d width %d", m.state, m.width)
	}
	if !strings.Contains(m.View(), "Anweisungen") {
		t.Fatal("menu should be German after the switch")
	}

	// The new spinner must be ticking or the loading indicator freezes.
	if tick == nil {
		t.Fatal("expected the spinner tick after a language change")
	}
	ts, ok := tick().(spinner.TickMsg)
	if !ok || ts.ID != m.spinner.ID() {
		t.Fatalf("expected a tick for spinner %d, got %#v", m.spinner.ID(), ts)
	}
	if _, next := m.Update(ts); next == nil {
		t.Fatal("spinner stopped after its first tick")
	}
}

func TestAllSectionsRender(t *testing.T) {
	h := newHarness(t)
	v := h.deps.Dashboard.Current()
	for _, s := range sections {
		m := newListModel(s, h.deps, v, 160, 48)
		if out := m.View(); !strings.Contains(out, s.title()) {
			t.Errorf("section %d view missing its title", s)
		}
		if len(m.allRows) == 0 {
			t.Errorf("section %d has no rows for the populated fixture", s)
		}
	}
}

func TestAlignFooterAndTruncate(t *testing.T) {
	if got := AlignFooter("a", "b", 5); got != "a   b" {
		t.Fatalf("AlignFooter = %q", got)
	}
	if got := AlignFooter("left", "right", 3); got != "left right" {
		t.Fatalf("AlignFooter narrow = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate short = %q", got)
	}
}
