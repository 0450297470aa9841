// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"testing"

	"github.com/iclaudius/claudius/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	fm, body, err := SplitFrontmatter("---\nname: x\ntools: [Read, Edit]\n---\nHello\n")
	require.NoError(t, err)
	assert.Equal(t, "x", fmString(fm, "name"))
	assert.Equal(t, []string{"Read", "Edit"}, fmList(fm, "tools"))
	assert.Equal(t, "Hello\n", body)

	fm, body, err = SplitFrontmatter("No header\n")
	require.NoError(t, err)
	assert.Nil(t, fm)
	assert.Equal(t, "No header\n", body)

	fm, body, err = SplitFrontmatter("---\r\ndescription: crlf\r\n---\r\nbody")
	require.NoError(t, err)
	assert.Equal(t, "crlf", fmString(fm, "description"))
	assert.Equal(t, "body", body)

	_, _, err = SplitFrontmatter("---\nname: x\nno end")
	assert.Error(t, err)
}

func TestSplitToolList(t *testing.T) {
	got := splitToolList("Bash(git add:*, git commit:*), Read ,, Edit")
	assert.Equal(t, []string{"Bash(git add:*, git commit:*)", "Read", "Edit"}, got)
}

func TestFirstProseLine(t *testing.T) {
	body := "# Title\n\n```\ncode\n```\nThe real description.\nMore."
	assert.Equal(t, "The real description.", firstProseLine(body))
	assert.Empty(t, firstProseLine("# only headings\n## here"))
}

func TestParsePluginManifest_Shapes(t *testing.T) {
	v2 := `{"version":2,"plugins":{"a@m":[
		{"version":"1.0.0","lastUpdated":"2026-01-01T00:00:00Z","installPath":"/old"},
		{"version":"1.1.0","lastUpdated":"2026-03-01T00:00:00Z","installPath":"/new"}]}}`
	got, err := ParsePluginManifest([]byte(v2))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "m", got[0].Marketplace)
	assert.Equal(t, "1.1.0", got[0].Version)
	assert.Equal(t, "/new", got[0].InstallPath)
	assert.True(t, got[0].Enabled)

	v1 := `{"version":1,"plugins":{"b@m":{"version":"0.2","installedAt":"bogus"}}}`
	got, err = ParsePluginManifest([]byte(v1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0.2", got[0].Version)
	assert.True(t, got[0].InstalledAt.IsZero())

	flat := `{"c":{"version":"3"}}`
	got, err = ParsePluginManifest([]byte(flat))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID())

	_, err = ParsePluginManifest([]byte(`{"plugins":{"x":42}}`))
	assert.Error(t, err)
}

func TestParseSettings(t *testing.T) {
	data := []byte(`{
		"permissions": {"allow": ["Read"], "deny": ["Bash(rm:*)"], "ask": ["Write"], "defaultMode": "acceptEdits", "additionalDirectories": ["../lib"]},
		"env": {"DEBUG": 1, "NAME": "x"},
		"hooks": {
			"Stop": [{"hooks": [{"type": "command", "command": "notify"}]}],
			"PreToolUse": [{"matcher": "Bash", "hooks": [{"type": "command", "command": "guard", "timeout": 5}]}]
		},
		"zzz": true
	}`)
	st, err := ParseSettings("/s.json", model.ScopeProject, data)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, "acceptEdits", st.PermissionMode)
	assert.Equal(t, []string{"Read"}, st.Allow)
	assert.Equal(t, []string{"Bash(rm:*)"}, st.Deny)
	assert.Equal(t, []string{"Write"}, st.Ask)
	assert.Equal(t, []string{"../lib"}, st.AdditionalDirs)
	assert.Equal(t, map[string]string{"DEBUG": "1", "NAME": "x"}, st.Env)
	require.Len(t, st.Hooks, 2)
	assert.Equal(t, "PreToolUse", st.Hooks[0].Event, "hooks are ordered by event")
	assert.Equal(t, 5, st.Hooks[0].Timeout)
	assert.Equal(t, []string{"permissions", "env", "hooks", "zzz"}, st.Keys())

	_, err = ParseSettings("/bad.json", model.ScopeUser, []byte("{"))
	assert.Error(t, err)
}

func TestParseMCP(t *testing.T) {
	data := []byte(`{
		"mcpServers": {"b": {"url": "https://x"}, "a": {"command": "npx", "args": ["-y", "srv"], "env": {"K": "v"}}},
		"projects": {"/p": {"mcpServers": {"c": {"type": "sse", "url": "https://c"}}}}
	}`)
	got, err := ParseMCP("user", data)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "stdio", got[0].Type)
	assert.Equal(t, map[string]string{"K": "v"}, got[0].Env)
	assert.Equal(t, "http", got[1].Type)
	assert.Equal(t, "/p", got[2].Source)
	assert.Equal(t, "sse", got[2].Type)
}

func TestTokenCounters(t *testing.T) {
	assert.Equal(t, 0, ApproxCounter{}.Count(""))
	assert.Equal(t, 1, ApproxCounter{}.Count("abc"))
	assert.Equal(t, 3, ApproxCounter{}.Count("abcdefghij"))
	_, ok := NewTokenCounter(false).(ApproxCounter)
	assert.True(t, ok)
	_, ok = NewTokenCounter(true).(*tiktokenCounter)
	assert.True(t, ok)
}
