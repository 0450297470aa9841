// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package cron

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner emulates the crontab binary against an in-memory table.
type fakeRunner struct {
	table    *string
	failList error
	calls    [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(args) == 1 && args[0] == "-l" {
		if f.failList != nil {
			return nil, []byte("permission denied"), f.failList
		}
		if f.table == nil {
			return nil, []byte("no crontab for tester\n"), errors.New("exit status 1")
		}
		return []byte(*f.table), nil, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, err
	}
	s := string(data)
	f.table = &s
	return nil, nil, nil
}

func newFake(table string) (*Crontab, *fakeRunner) {
	r := &fakeRunner{table: &table}
	return &Crontab{Binary: "crontab", Assistant: "claude", Runner: r}, r
}

const sample = `SHELL=/bin/bash
MAILTO=""
# m h dom mon dow command
# nightly review
0 3 * * * cd ~/repo && claude -p "review" --dangerously-skip-permissions
*/15 * * * * /usr/local/bin/backup.sh

# 30 9 * * 1-5 /usr/bin/claude -p standup
@reboot /opt/start.sh
this is not a job
`

func TestParse(t *testing.T) {
	jobs := Parse(sample, "claude")
	require.Len(t, jobs, 4)

	assert.Equal(t, 4, jobs[0].Index)
	assert.Equal(t, "0 3 * * *", jobs[0].Schedule)
	assert.Equal(t, "nightly review", jobs[0].Comment)
	assert.True(t, jobs[0].Enabled)
	assert.True(t, jobs[0].Assistant)

	assert.Equal(t, "*/15 * * * *", jobs[1].Schedule)
	assert.Equal(t, "/usr/local/bin/backup.sh", jobs[1].Command)
	assert.Empty(t, jobs[1].Comment)
	assert.False(t, jobs[1].Assistant)

	assert.False(t, jobs[2].Enabled)
	assert.Equal(t, "30 9 * * 1-5", jobs[2].Schedule)
	assert.True(t, jobs[2].Assistant)

	assert.Equal(t, "@reboot", jobs[3].Schedule)
	assert.Equal(t, "/opt/start.sh", jobs[3].Command)
}

func TestList_NoCrontabIsEmpty(t *testing.T) {
	r := &fakeRunner{}
	c := &Crontab{Binary: "crontab", Assistant: "claude", Runner: r}
	jobs, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestList_OtherErrorsSurface(t *testing.T) {
	r := &fakeRunner{failList: errors.New("exit status 2")}
	c := &Crontab{Binary: "crontab", Runner: r}
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCrontab))
}

func TestAdd_AppendsAndKeepsEnvironment(t *testing.T) {
	c, r := newFake("SHELL=/bin/bash\n")
	c.TempDir = t.TempDir()

	msg, err := c.Add(context.Background(), "0 9 * * *", "claude -p 'daily summary'", "morning")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Equal(t, "SHELL=/bin/bash\n# morning\n0 9 * * * claude -p 'daily summary'\n", *r.table)

	entries, _ := os.ReadDir(c.TempDir)
	assert.Empty(t, entries, "temp crontab file must be removed")
}

func TestAdd_ToEmptyCrontab(t *testing.T) {
	r := &fakeRunner{}
	c := &Crontab{Binary: "crontab", Assistant: "claude", Runner: r, TempDir: t.TempDir()}
	_, err := c.Add(context.Background(), "@daily", "/bin/true", "")
	require.NoError(t, err)
	assert.Equal(t, "@daily /bin/true\n", *r.table)
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	c, r := newFake("")
	_, err := c.Add(context.Background(), "61 * * * *", "x", "")
	assert.True(t, errors.Is(err, ErrInvalidSchedule))
	_, err = c.Add(context.Background(), "* * * * *", "a\nb", "")
	assert.True(t, errors.Is(err, ErrInvalidCommand))
	assert.Empty(t, r.calls, "nothing should be read or written")
}

func TestUpdate_PreservesDisabledState(t *testing.T) {
	c, r := newFake(sample)
	c.TempDir = t.TempDir()

	_, err := c.Update(context.Background(), 7, "0 10 * * 1-5", "/usr/bin/claude -p standup")
	require.NoError(t, err)

	jobs := Parse(*r.table, "claude")
	require.Len(t, jobs, 4)
	assert.Equal(t, "0 10 * * 1-5", jobs[2].Schedule)
	assert.False(t, jobs[2].Enabled)
}

func TestUpdate_UnknownIndex(t *testing.T) {
	c, _ := newFake(sample)
	_, err := c.Update(context.Background(), 0, "* * * * *", "x")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemove_DropsAttachedComment(t *testing.T) {
	c, r := newFake(sample)
	c.TempDir = t.TempDir()

	_, err := c.Remove(context.Background(), 4)
	require.NoError(t, err)
	assert.NotContains(t, *r.table, "nightly review")
	assert.NotContains(t, *r.table, "dangerously")
	assert.Contains(t, *r.table, "# m h dom mon dow command")
	assert.Len(t, Parse(*r.table, "claude"), 3)
}

func TestSetEnabled(t *testing.T) {
	c, r := newFake(sample)
	c.TempDir = t.TempDir()
	ctx := context.Background()

	_, err := c.SetEnabled(ctx, 5, false)
	require.NoError(t, err)
	jobs := Parse(*r.table, "claude")
	assert.False(t, jobs[1].Enabled)

	_, err = c.SetEnabled(ctx, 7, true)
	require.NoError(t, err)
	jobs = Parse(*r.table, "claude")
	assert.True(t, jobs[2].Enabled)
	assert.Equal(t, "30 9 * * 1-5 /usr/bin/claude -p standup", jobs[2].Line)

	calls := len(r.calls)
	_, err = c.SetEnabled(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, calls+1, len(r.calls), "no write when state is unchanged")
}

func TestInvokesAssistant(t *testing.T) {
	cases := []struct {
		cmd  string
		want bool
	}{
		{"claude -p hi", true},
		{"cd /x && /home/u/.local/bin/claude", true},
		{"(claude --version)", true},
		{"claudette run", false},
		{"echo claude-code", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InvokesAssistant(tc.cmd, "claude"), tc.cmd)
	}
	assert.False(t, InvokesAssistant("claude", ""))
}
