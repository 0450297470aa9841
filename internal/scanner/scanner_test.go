// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/testutil"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanFixture(t *testing.T, f *testutil.Fixture, opts Options) *model.Snapshot {
	t.Helper()
	snap, err := Scan(context.Background(), f.Layout(), opts)
	require.NoError(t, err)
	return snap
}

func TestScan_FullTree(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Populate()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	snap := scanFixture(t, f, Options{
		Prober: &testutil.FakeProber{VersionString: "2.0.14 (Claude Code)", Running: 2},
		Cron:   &testutil.FakeCron{Jobs: []model.CronJob{{Index: 0, Schedule: "@daily", Command: "claude -p hi", Enabled: true, Assistant: true}}},
		Clock:  clock,
	})

	assert.Empty(t, snap.Issues)
	assert.Equal(t, clock.Now(), snap.ScannedAt)
	assert.Equal(t, "2.0.14 (Claude Code)", snap.AssistantVersion)
	assert.Equal(t, 2, snap.RunningSessions)
	assert.Len(t, snap.CronJobs, 1)
	assert.Len(t, snap.Changes, 1)

	require.Len(t, snap.Instructions, 3)
	assert.Equal(t, model.ScopeGlobal, snap.Instructions[0].Scope)
	assert.Equal(t, model.ScopeProject, snap.Instructions[1].Scope)
	assert.Equal(t, f.Path("code/app"), snap.Instructions[1].Project)
	assert.Equal(t, model.ScopeLocal, snap.Instructions[2].Scope)
	assert.Equal(t, []string{f.Path(".claude/rules/style.md")}, snap.Instructions[0].Imports)
	assert.Positive(t, snap.Instructions[0].Tokens)
	assert.Equal(t, 6, snap.Instructions[0].Lines)

	names := map[string]model.Command{}
	for _, c := range snap.Commands {
		names[c.Invocation()] = c
	}
	require.Len(t, snap.Commands, 6)
	assert.Contains(t, names, "/deploy")
	assert.Contains(t, names, "/git:commit")
	assert.Contains(t, names, "/ship")
	assert.Contains(t, names, "/helper:hello")
	assert.Contains(t, names, "pdf-tools")
	assert.Contains(t, names, "@agent-reviewer")

	assert.Equal(t, "Deploy to staging", names["/deploy"].Description)
	assert.Equal(t, "[env]", names["/deploy"].ArgumentHint)
	assert.Equal(t, "Write a conventional commit message.", names["/git:commit"].Description)
	assert.Equal(t, []string{"Bash(git push:*)", "Read"}, names["/ship"].AllowedTools)
	assert.Equal(t, model.ScopeProject, names["/ship"].Scope)
	assert.Equal(t, model.ScopePlugin, names["/helper:hello"].Scope)
	assert.Equal(t, []string{"Read", "Grep"}, names["@agent-reviewer"].AllowedTools)

	require.Len(t, snap.Plugins, 2)
	assert.Equal(t, "gone@tools", snap.Plugins[0].ID())
	assert.False(t, snap.Plugins[0].Enabled)
	assert.Equal(t, "helper@tools", snap.Plugins[1].ID())
	assert.True(t, snap.Plugins[1].Enabled)
	assert.Equal(t, "1.2.0", snap.Plugins[1].Version)

	require.Len(t, snap.Settings, 3)
	assert.Equal(t, model.ScopeUser, snap.Settings[0].Scope)
	assert.Equal(t, "opus", snap.Settings[0].Model)
	assert.Equal(t, []string{"model", "permissions", "hooks", "env", "enabledPlugins"}, snap.Settings[0].Keys())
	require.Len(t, snap.Settings[0].Hooks, 1)
	assert.Equal(t, "PostToolUse", snap.Settings[0].Hooks[0].Event)
	assert.Equal(t, model.ScopeUserLocal, snap.Settings[1].Scope)
	assert.Equal(t, model.ScopeProject, snap.Settings[2].Scope)

	require.Len(t, snap.MCPServers, 2)
	assert.Equal(t, "stdio", snap.MCPServers[0].Type)
}

func TestScan_EmptyHome(t *testing.T) {
	f := testutil.NewFixture(t)
	snap := scanFixture(t, f, Options{Prober: &testutil.FakeProber{Err: errors.New("not installed")}})

	assert.Empty(t, snap.Instructions)
	assert.Empty(t, snap.Commands)
	assert.Empty(t, snap.Issues)
	assert.Empty(t, snap.AssistantVersion)
	assert.Zero(t, snap.RunningSessions)
	require.Len(t, snap.Settings, 2, "user settings are listed even when missing")
	assert.False(t, snap.Settings[0].Exists)
}

func TestScan_MalformedFilesBecomeIssues(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Write(".claude/settings.json", "{ nope")
	f.Write(".claude/plugins/installed_plugins.json", "[")
	f.Write(".claude.json", "not json")
	f.Write(".claude/autonomous-changes.json", "{")
	f.Write(".claude/commands/bad.md", "---\nname: [unclosed\n---\nbody\n")

	snap := scanFixture(t, f, Options{
		Cron: &testutil.FakeCron{ListFunc: func(context.Context) ([]model.CronJob, error) {
			return nil, errors.New("crontab exploded")
		}},
	})

	paths := map[string]bool{}
	for _, is := range snap.Issues {
		paths[is.Path] = true
	}
	assert.True(t, paths[f.Path(".claude/settings.json")])
	assert.True(t, paths[f.Path(".claude/plugins/installed_plugins.json")])
	assert.True(t, paths[f.Path(".claude.json")])
	assert.True(t, paths[f.Path(".claude/autonomous-changes.json")])
	assert.True(t, paths[f.Path(".claude/commands/bad.md")])
	assert.True(t, paths["crontab"])

	require.Len(t, snap.Commands, 1, "a command with bad frontmatter is still listed")
	assert.True(t, snap.Settings[0].Exists)
	assert.Empty(t, snap.CronJobs)
}

func TestScan_Deterministic(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Populate()
	f.Write("code/other/CLAUDE.md", "other\n")
	f.Write("code/other/.claude/commands/a.md", "a\n")

	clock := clockwork.NewFakeClock()
	a := scanFixture(t, f, Options{Clock: clock})
	b := scanFixture(t, f, Options{Clock: clock})
	assert.Equal(t, a, b)
}

func TestScan_CancelledContext(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Populate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, f.Layout(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverProjects_RespectsDepthAndSkips(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Write("code/a/CLAUDE.md", "a")
	f.Write("code/b/.claude/settings.json", "{}")
	f.Write("code/c/.mcp.json", "{}")
	f.Write("code/node_modules/pkg/CLAUDE.md", "skip")
	f.Write("code/.hidden/CLAUDE.md", "skip")
	f.Write("code/d/1/2/3/4/5/CLAUDE.md", "too deep")

	snap := &model.Snapshot{}
	got := DiscoverProjects(context.Background(), f.Layout(), snap)
	assert.Equal(t, []string{f.Path("code/a"), f.Path("code/b"), f.Path("code/c")}, got)
	assert.Empty(t, snap.Issues)
}

func TestDiscoverProjects_IgnoresHome(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Write(".claude/CLAUDE.md", "global")
	f.Write("CLAUDE.md", "home")
	l := f.Layout()
	l.ProjectRoots = []string{f.Home}

	got := DiscoverProjects(context.Background(), l, &model.Snapshot{})
	assert.Empty(t, got)
}

func TestParseImports(t *testing.T) {
	content := "See @README.md and @./docs/a.md.\n" +
		"Mail me at me@example.com.\n" +
		"Ask @agent-reviewer.\n" +
		"`@ignored/inline.md`\n" +
		"```\n@ignored/fenced.md\n```\n" +
		"@~/notes/x.md\n" +
		"@/abs/path.md\n"
	got := ParseImports(content, "/proj", "/home/u")
	assert.Equal(t, []string{
		filepath.Join("/proj", "README.md"),
		filepath.Join("/proj", "docs", "a.md"),
		filepath.Join("/home/u", "notes", "x.md"),
		filepath.Clean("/abs/path.md"),
	}, got)
}
