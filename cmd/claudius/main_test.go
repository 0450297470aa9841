// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iclaudius/claudius/internal/cron"
	"github.com/iclaudius/claudius/internal/editor"
	"github.com/iclaudius/claudius/internal/export"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/scanner"
	"github.com/iclaudius/claudius/internal/testutil"
	"github.com/iclaudius/claudius/internal/tui"
	"github.com/jonboulle/clockwork"
)

// fakeCrontab emulates the crontab binary against an in-memory table.
type fakeCrontab struct {
	table      string
	failList   error
	failWrites error
}

func (f *fakeCrontab) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	if len(args) == 1 && args[0] == "-l" {
		if f.failList != nil {
			return nil, []byte("permission denied"), f.failList
		}
		if f.table == "" {
			return nil, []byte("no crontab for tester\n"), errors.New("exit status 1")
		}
		return []byte(f.table), nil, nil
	}
	if f.failWrites != nil {
		return nil, []byte("crontab: installing new crontab failed"), f.failWrites
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, err
	}
	f.table = string(data)
	return nil, nil, nil
}

type env struct {
	fixture *testutil.Fixture
	crontab *fakeCrontab
	clock   *clockwork.FakeClock
}

// setupEnv points HOME and the config dir at a populated fixture and swaps
// the process seams for fakes.
func setupEnv(t *testing.T) *env {
	t.Helper()
	f := testutil.NewFixture(t)
	f.Populate()
	t.Setenv("HOME", f.Home)
	t.Setenv("XDG_CONFIG_HOME", f.Path(".config"))

	e := &env{
		fixture: f,
		crontab: &fakeCrontab{table: "# morning backup\n0 9 * * * /usr/local/bin/backup\n"},
		clock:   clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	origRunner, origProber, origTerm, origTUI, origClock := newCronRunner, newProber, isTerminal, runTUI, newClock
	newCronRunner = func() cron.Runner { return e.crontab }
	newProber = func(string) scanner.Prober { return &testutil.FakeProber{VersionString: "2.0.14", Running: 1} }
	isTerminal = func() bool { return false }
	newClock = func() clockwork.Clock { return e.clock }
	t.Cleanup(func() {
		newCronRunner, newProber, isTerminal, runTUI, newClock = origRunner, origProber, origTerm, origTUI, origClock
		logging.SetOutput(os.Stderr)
		i18n.Init("en")
	})
	return e
}

// execute runs a fresh root command and returns everything it printed.
func (e *env) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	base := []string{"--project-root", e.fixture.Path("code")}
	if !containsPrefix(args, "--history") {
		base = append(base, "--history=false")
	}
	root.SetArgs(append(args, base...))
	err := root.Execute()
	return buf.String(), err
}

func (e *env) mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.execute(t, args...)
	if err != nil {
		t.Fatalf("claudius %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func containsPrefix(args []string, prefix string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, prefix) {
			return true
		}
	}
	return false
}

func TestRoot_PrintsSummaryWithoutTerminal(t *testing.T) {
	e := setupEnv(t)
	out := e.mustExecute(t)

	for _, want := range []string{"2.0.14", "/100 (", "Top Findings", "tightened rules", "Instructions:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRoot_LaunchesDashboardOnTerminal(t *testing.T) {
	e := setupEnv(t)
	isTerminal = func() bool { return true }
	var got *tui.Deps
	runTUI = func(_ context.Context, d *tui.Deps) error {
		got = d
		return nil
	}

	e.mustExecute(t, "--watch")
	if got == nil {
		t.Fatalf("expected the dashboard to start")
	}
	if got.Dashboard == nil || got.Editor == nil || got.Cron == nil || got.SaveConfig == nil {
		t.Fatalf("dashboard dependencies not wired: %+v", got)
	}
	if got.Config.Language != "en" {
		t.Fatalf("expected language en, got %q", got.Config.Language)
	}
	if len(got.Watch) == 0 {
		t.Fatalf("expected watch directories with --watch")
	}
	if _, err := os.Stat(e.fixture.Path(".claude/claudius.log")); err != nil {
		t.Fatalf("expected log file in config dir: %v", err)
	}
}

func TestScan_Inventory(t *testing.T) {
	e := setupEnv(t)
	out := e.mustExecute(t, "scan")
	for _, want := range []string{"/deploy", "@agent-reviewer", "helper@tools", "/usr/local/bin/backup", "github"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inventory missing %q:\n%s", want, out)
		}
	}

	out = e.mustExecute(t, "scan", "--lang", "de")
	if !strings.Contains(out, "Anweisungen") {
		t.Fatalf("expected German headings:\n%s", out)
	}
}

func TestScan_JSON(t *testing.T) {
	e := setupEnv(t)
	out := e.mustExecute(t, "scan", "--json")

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("scan --json is not a snapshot: %v\n%s", err, out)
	}
	if snap.AssistantVersion != "2.0.14" {
		t.Fatalf("unexpected version %q", snap.AssistantVersion)
	}
	if len(snap.CommandsOfKind(model.KindCommand)) == 0 || len(snap.CronJobs) != 1 {
		t.Fatalf("unexpected snapshot: %d commands, %d jobs", len(snap.Commands), len(snap.CronJobs))
	}
}

func TestAnalyze_Sections(t *testing.T) {
	e := setupEnv(t)

	all := e.mustExecute(t, "analyze")
	for _, want := range []string{"Conflicts:", "Dependencies:", "Safety score:", "Health", "Coverage:"} {
		if !strings.Contains(all, want) {
			t.Fatalf("analysis missing %q:\n%s", want, all)
		}
	}

	safety := e.mustExecute(t, "analyze", "--section", "safety")
	if !strings.Contains(safety, "/100") || strings.Contains(safety, "Coverage:") {
		t.Fatalf("expected only the safety section:\n%s", safety)
	}

	deps := e.mustExecute(t, "analyze", "-s", "deps")
	if !strings.Contains(deps, "missing.md") {
		t.Fatalf("expected the broken import to be listed:\n%s", deps)
	}

	if _, err := e.execute(t, "analyze", "--section", "bogus"); err == nil || !strings.Contains(err.Error(), "unknown section") {
		t.Fatalf("expected unknown section error, got %v", err)
	}
}

func TestCron_ListAddDisableRemove(t *testing.T) {
	e := setupEnv(t)

	out := e.mustExecute(t, "cron", "list")
	if !strings.Contains(out, "every day at 09:00") || !strings.Contains(out, "/usr/local/bin/backup") {
		t.Fatalf("unexpected list:\n%s", out)
	}

	out = e.mustExecute(t, "cron", "add", "*/15 * * * *", "/bin/true", "--comment", "heartbeat")
	if !strings.Contains(out, "Added job: every 15 minutes") {
		t.Fatalf("unexpected add output: %q", out)
	}
	if !strings.Contains(e.crontab.table, "# heartbeat\n*/15 * * * * /bin/true") {
		t.Fatalf("job not installed:\n%s", e.crontab.table)
	}

	out = e.mustExecute(t, "cron", "disable", "1")
	if !strings.Contains(out, "Disabled job: /usr/local/bin/backup") {
		t.Fatalf("unexpected disable output: %q", out)
	}
	if !strings.Contains(e.crontab.table, "# 0 9 * * * /usr/local/bin/backup") {
		t.Fatalf("job not commented out:\n%s", e.crontab.table)
	}

	out = e.mustExecute(t, "cron", "enable", "1")
	if !strings.Contains(out, "Enabled job") {
		t.Fatalf("unexpected enable output: %q", out)
	}

	out = e.mustExecute(t, "cron", "update", "1", "30 7 * * 1-5", "/usr/local/bin/backup --full")
	if !strings.Contains(out, "weekdays at 07:30") {
		t.Fatalf("unexpected update output: %q", out)
	}

	out = e.mustExecute(t, "cron", "rm", "1")
	if !strings.Contains(out, "Removed job") {
		t.Fatalf("unexpected remove output: %q", out)
	}
	if strings.Contains(e.crontab.table, "backup") || strings.Contains(e.crontab.table, "morning backup") {
		t.Fatalf("job or its comment survived:\n%s", e.crontab.table)
	}
}

func TestCron_Errors(t *testing.T) {
	e := setupEnv(t)

	if _, err := e.execute(t, "cron", "rm", "x"); err == nil || !strings.Contains(err.Error(), "invalid job index") {
		t.Fatalf("expected invalid index error, got %v", err)
	}
	if _, err := e.execute(t, "cron", "rm", "42"); !errors.Is(err, cron.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.execute(t, "cron", "add", "61 * * * *", "/bin/true"); !errors.Is(err, cron.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}

	e.crontab.failWrites = errors.New("exit status 1")
	if _, err := e.execute(t, "cron", "add", "@daily", "/bin/true"); err == nil {
		t.Fatalf("expected install failure to surface")
	}
}

func TestNew_CreatesFiles(t *testing.T) {
	e := setupEnv(t)

	out := e.mustExecute(t, "new", "command", "lint", "-d", "Run linters", "-b", "Run golangci-lint.")
	if !strings.Contains(out, "Created command") {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(e.fixture.Path(".claude/commands/lint.md"))
	if err != nil {
		t.Fatalf("command file not written: %v", err)
	}
	if !strings.Contains(string(data), "description: Run linters") {
		t.Fatalf("unexpected command file:\n%s", data)
	}

	e.mustExecute(t, "new", "agent", "tester", "-d", "Writes tests", "--tools", "Read,Edit")
	if _, err := os.Stat(e.fixture.Path(".claude/agents/tester.md")); err != nil {
		t.Fatalf("agent file not written: %v", err)
	}

	project := e.fixture.Path("code/app")
	e.mustExecute(t, "new", "skill", "charts", "-d", "Draw charts", "-p", project)
	if _, err := os.Stat(filepath.Join(project, ".claude", "skills", "charts", "SKILL.md")); err != nil {
		t.Fatalf("project skill not written: %v", err)
	}

	if _, err := e.execute(t, "new", "command", "deploy"); !errors.Is(err, editor.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := e.execute(t, "new", "command", "Bad Name"); !errors.Is(err, editor.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestChangelog_AddAndList(t *testing.T) {
	e := setupEnv(t)

	out := e.mustExecute(t, "changelog", "add", "edit-rules", "dropped", "the", "tabs", "rule", "--target", "CLAUDE.md")
	if !strings.Contains(out, "Recorded change") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out = e.mustExecute(t, "changelog", "list", "--action", "edit-rules")
	if !strings.Contains(out, "dropped the tabs rule") || strings.Contains(out, "tightened rules") {
		t.Fatalf("unexpected filtered list:\n%s", out)
	}

	out = e.mustExecute(t, "changelog", "list", "--actor", "claude")
	if !strings.Contains(out, "tightened rules") {
		t.Fatalf("expected the assistant's entry:\n%s", out)
	}
}

func TestHistory_Disabled(t *testing.T) {
	e := setupEnv(t)
	if _, err := e.execute(t, "history"); !errors.Is(err, errHistoryDisabled) {
		t.Fatalf("expected errHistoryDisabled, got %v", err)
	}
}

func TestHistory_RecordsScansAndActions(t *testing.T) {
	e := setupEnv(t)
	dsn := filepath.Join(t.TempDir(), "history.db")
	hist := []string{"--history=true", "--history-dsn", dsn}

	out := e.mustExecute(t, append([]string{"history"}, hist...)...)
	if !strings.Contains(out, "No scans recorded yet.") {
		t.Fatalf("expected empty history: %q", out)
	}

	e.mustExecute(t, append([]string{"scan"}, hist...)...)
	e.clock.Advance(time.Hour)
	e.mustExecute(t, append([]string{"scan"}, hist...)...)

	out = e.mustExecute(t, append([]string{"history"}, hist...)...)
	if !strings.Contains(out, "Showing 2 of 2 recorded scans") || !strings.Contains(out, "+0") {
		t.Fatalf("unexpected history:\n%s", out)
	}

	e.mustExecute(t, append([]string{"cron", "add", "@hourly", "/bin/true"}, hist...)...)
	e.mustExecute(t, append([]string{"new", "command", "audited"}, hist...)...)
	out = e.mustExecute(t, append([]string{"history", "audit"}, hist...)...)
	if !strings.Contains(out, "cron-add") || !strings.Contains(out, "create-command") {
		t.Fatalf("expected audited writes:\n%s", out)
	}

	out = e.mustExecute(t, append([]string{"history", "prune", "--older-than", "30m"}, hist...)...)
	if !strings.Contains(out, "Removed 1 scans") {
		t.Fatalf("unexpected prune output: %q", out)
	}

	out = e.mustExecute(t, append([]string{"history", "maintain"}, hist...)...)
	if !strings.Contains(out, "Database maintenance complete.") {
		t.Fatalf("unexpected maintenance output: %q", out)
	}
}

func TestExport_CompressedFile(t *testing.T) {
	e := setupEnv(t)
	path := filepath.Join(t.TempDir(), "claudius.json.zst")

	out := e.mustExecute(t, "export", "--zstd", "-o", path)
	if !strings.Contains(out, "Exported to") {
		t.Fatalf("unexpected output: %q", out)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	head := make([]byte, 4)
	if _, err := f.Read(head); err != nil || !export.IsCompressed(head) {
		t.Fatalf("expected zstd output, got %x (%v)", head, err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	doc, err := export.Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Snapshot == nil || doc.Report == nil || !doc.GeneratedAt.Equal(e.clock.Now()) {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestExport_Stdout(t *testing.T) {
	e := setupEnv(t)
	out := e.mustExecute(t, "export")
	doc, err := export.Read(strings.NewReader(out))
	if err != nil {
		t.Fatalf("stdout export not readable: %v", err)
	}
	if doc.Snapshot.AssistantVersion != "2.0.14" {
		t.Fatalf("unexpected snapshot: %+v", doc.Snapshot)
	}
}

func TestSchemaCmd(t *testing.T) {
	e := setupEnv(t)
	out := e.mustExecute(t, "schema")
	if !strings.Contains(out, "generated_at") || !strings.Contains(out, "snapshot") {
		t.Fatalf("unexpected schema:\n%s", out)
	}
}

func TestDebugCmd(t *testing.T) {
	e := setupEnv(t)
	t.Setenv("CLAUDIUS_TOKEN_BUDGET", "1234")
	out := e.mustExecute(t, "debug")
	for _, want := range []string{"--- CLAUDIUS DEBUG ---", e.fixture.Path(".claude"), "CLAUDIUS_TOKEN_BUDGET=1234", "token_budget: 1234"} {
		if !strings.Contains(out, want) {
			t.Fatalf("debug output missing %q:\n%s", want, out)
		}
	}
}

func TestDebugCmd_HidesHistoryPassword(t *testing.T) {
	e := setupEnv(t)
	t.Setenv("CLAUDIUS_HISTORY_DSN", "postgres://app:envpass@db/claudius")
	out := e.mustExecute(t, "debug", "--history=false", "--history-type", "postgres",
		"--history-dsn", "postgres://app:s3cret@db:5432/claudius")
	for _, secret := range []string{"s3cret", "envpass"} {
		if strings.Contains(out, secret) {
			t.Fatalf("debug output leaks %q:\n%s", secret, out)
		}
	}
	if !strings.Contains(out, "postgres://app:xxxxx@db:5432/claudius") {
		t.Fatalf("debug output misses the redacted DSN:\n%s", out)
	}
}

func TestVersionCmd(t *testing.T) {
	e := setupEnv(t)
	out := e.mustExecute(t, "version")
	if !strings.HasPrefix(out, "version: ") || !strings.Contains(out, "commit: ") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestConfigFlag_MissingFile(t *testing.T) {
	e := setupEnv(t)
	_, err := e.execute(t, "scan", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

func TestConfigFile_SetsLanguage(t *testing.T) {
	e := setupEnv(t)
	path := e.fixture.Write("custom.yaml", "language: de\n")
	out := e.mustExecute(t, "scan", "--config", path)
	if !strings.Contains(out, "Anweisungen") {
		t.Fatalf("expected German output from config file:\n%s", out)
	}
}
